package deps

import (
	"time"

	"github.com/rolodexhq/rolodex/internal/logger"
	"github.com/rolodexhq/rolodex/internal/store"
)

type Deps struct {
	Logger             logger.Logger
	Repo               store.Repository
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time // for testing, defaults to time.Now
	DefaultPageSize    int              // page size when the request does not ask for one
	MaxPageSize        int              // hard ceiling on requested page sizes
	MaxUploadBytes     int64            // upload limit for import files and avatars
	AllowedAvatarTypes []string         // acceptable data URL media types for avatars
	EnableAnalytics    bool
	EnableImport       bool
	EnableExport       bool
}

// Now returns the configured clock, defaulting to time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
