package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/importer"
	"github.com/rolodexhq/rolodex/internal/logger"
	"github.com/rolodexhq/rolodex/internal/utils"
)

// ImportContacts handles POST /api/contacts/import. The body is either
// a multipart form with a "file" part or a raw CSV body; the pipeline
// runs server-side with the auto-proposed column mapping.
func ImportContacts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, body, err := importBody(r, d.MaxUploadBytes)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer utils.Close(body)

		p := importer.NewPipeline()
		if err := p.SelectFile(name, body, d.MaxUploadBytes); err != nil {
			respondDomainError(w, d, err)
			return
		}
		if err := p.Parse(); err != nil {
			respondDomainError(w, d, err)
			return
		}
		if err := p.ConfirmMapping(); err != nil {
			respondDomainError(w, d, err)
			return
		}
		if err := p.Review(); err != nil {
			var merr *importer.MappingError
			if errors.As(err, &merr) {
				respondError(w, http.StatusBadRequest, merr.Error())
				return
			}
			respondDomainError(w, d, err)
			return
		}

		report, err := p.Run(r.Context(), d.Repo)
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		d.Logger.Info("import finished",
			logger.String("file", name),
			logger.Int("imported", report.Imported),
			logger.Int("failed", len(report.Failures)))
		respondData(w, http.StatusOK, report)
	}
}

// ImportSample handles GET /api/contacts/import/sample with the
// downloadable CSV template.
func ImportSample(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="contacts-sample.csv"`)
		_, _ = w.Write(importer.SampleCSV())
	}
}

func importBody(r *http.Request, maxBytes int64) (string, io.ReadCloser, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return "upload.csv", r.Body, nil
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return "", nil, errors.New("invalid multipart body")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New(`multipart body is missing a "file" part`)
	}
	return header.Filename, file, nil
}
