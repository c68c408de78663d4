package domain

import (
	"sort"
	"time"
)

const (
	// TopCompaniesLimit caps the companies-by-frequency ranking.
	TopCompaniesLimit = 5

	// RecentWindow is the "recently added/updated" lookback.
	RecentWindow = 7 * 24 * time.Hour
)

// CompanyCount is one entry of the companies-by-frequency ranking.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// AnalyticsSummary is the aggregate served by GET /api/analytics.
type AnalyticsSummary struct {
	TotalContacts         int            `json:"totalContacts"`
	FavoriteContacts      int            `json:"favoriteContacts"`
	WithCompany           int            `json:"withCompany"`
	WithPhone             int            `json:"withPhone"`
	CompaniesCount        int            `json:"companiesCount"`
	TagsCount             int            `json:"tagsCount"`
	AverageTagsPerContact float64        `json:"averageTagsPerContact"`
	TopCompanies          []CompanyCount `json:"topCompanies"`
	RecentlyAdded         int            `json:"recentlyAdded"`
	RecentlyUpdated       int            `json:"recentlyUpdated"`
}

// Summarize aggregates the collection at time now. Contacts must be in
// creation order (oldest first) so that company ranking ties break by
// first-seen.
func Summarize(contacts []*Contact, now time.Time) *AnalyticsSummary {
	s := &AnalyticsSummary{TotalContacts: len(contacts)}

	cutoff := now.Add(-RecentWindow)
	companyCounts := make(map[string]int)
	companyFirstSeen := make(map[string]int)
	tagSet := make(map[string]bool)
	totalTags := 0

	for i, c := range contacts {
		if c.IsFavorite {
			s.FavoriteContacts++
		}
		if c.Phone != "" {
			s.WithPhone++
		}
		if c.Company != "" {
			s.WithCompany++
			if _, ok := companyFirstSeen[c.Company]; !ok {
				companyFirstSeen[c.Company] = i
			}
			companyCounts[c.Company]++
		}
		for _, tag := range c.Tags {
			tagSet[tag] = true
		}
		totalTags += len(c.Tags)
		if c.CreatedAt.After(cutoff) {
			s.RecentlyAdded++
		}
		if c.UpdatedAt.After(cutoff) && !c.UpdatedAt.Equal(c.CreatedAt) {
			s.RecentlyUpdated++
		}
	}

	s.CompaniesCount = len(companyCounts)
	s.TagsCount = len(tagSet)
	if len(contacts) > 0 {
		s.AverageTagsPerContact = float64(totalTags) / float64(len(contacts))
	}

	ranking := make([]CompanyCount, 0, len(companyCounts))
	for company, count := range companyCounts {
		ranking = append(ranking, CompanyCount{Company: company, Count: count})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return companyFirstSeen[ranking[i].Company] < companyFirstSeen[ranking[j].Company]
	})
	if len(ranking) > TopCompaniesLimit {
		ranking = ranking[:TopCompaniesLimit]
	}
	s.TopCompanies = ranking

	return s
}
