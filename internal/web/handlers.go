package web

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/huangfeng15/taizhang/internal/importer"
	"github.com/huangfeng15/taizhang/internal/logging"
)

// importResponse is the JSON rendering of an import report.
type importResponse struct {
	RunID    string   `json:"runId"`
	Module   string   `json:"module"`
	DryRun   bool     `json:"dryRun"`
	Total    int      `json:"total"`
	Blank    int      `json:"blank"`
	Comments int      `json:"comments"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
	Duration string   `json:"duration"`
}

func toResponse(r *importer.Report) importResponse {
	return importResponse{
		RunID:    r.RunID,
		Module:   string(r.Module),
		DryRun:   r.DryRun,
		Total:    r.Total,
		Blank:    r.Blank,
		Comments: r.Comments,
		Created:  r.Created,
		Updated:  r.Updated,
		Skipped:  r.Skipped,
		Failed:   r.Failed,
		Errors:   r.ErrorMessages(),
		Duration: r.Duration.String(),
	}
}

// handleHealth reports liveness and database connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondError(w, r, fmt.Errorf("database unreachable: %w", err), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListModules returns the registered import modules.
func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"modules": importer.Modules()})
}

// handleImport accepts a multipart spreadsheet upload and runs the import.
//
// Form fields:
//   - file      (required) the spreadsheet
//   - module    (required) project|procurement|contract|payment|evaluation
//   - mode      long (default) or wide
//   - conflict  update (default), skip, error, or replace
//   - project   deletion scope for conflict=replace
//   - dry_run   parse and validate only
//   - skip_errors  continue past row-level failures
//   - encoding  declared charset for CSV input
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		s.respondError(w, r, fmt.Errorf("parse multipart form: %w", err), http.StatusBadRequest)
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if opts.Encoding == "" {
		opts.Encoding = s.cfg.Import.DefaultEncoding
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("missing file field: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// The reader works on paths, so spool the upload to a temp file.
	path, cleanup, err := spool(file, header.Filename)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer cleanup()

	logger := logging.FromContext(r.Context())
	logger.Info("import requested",
		"module", opts.Module,
		"file", header.Filename,
		"size", header.Size,
	)

	start := time.Now()
	report, err := s.engine.ImportFile(r.Context(), path, opts)
	if err != nil {
		if report != nil {
			// Aborted mid-run: return what was counted alongside the error.
			resp := toResponse(report)
			resp.Errors = append(resp.Errors, err.Error())
			writeJSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	logger.Info("import request served",
		"module", opts.Module,
		"created", report.Created,
		"failed", report.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, toResponse(report))
}

func parseOptions(r *http.Request) (importer.Options, error) {
	var opts importer.Options
	var err error

	if opts.Module, err = importer.ParseModule(r.FormValue("module")); err != nil {
		return opts, err
	}
	if opts.Mode, err = importer.ParseMode(r.FormValue("mode")); err != nil {
		return opts, err
	}
	if opts.ConflictMode, err = importer.ParseConflictMode(r.FormValue("conflict")); err != nil {
		return opts, err
	}
	opts.ProjectCode = r.FormValue("project")
	opts.Encoding = r.FormValue("encoding")
	opts.DryRun = parseBool(r.FormValue("dry_run"))
	opts.SkipErrors = parseBool(r.FormValue("skip_errors"))
	return opts, opts.Validate()
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// spool copies an uploaded file to a temp path, preserving the extension so
// the reader can pick the right format.
func spool(src io.Reader, filename string) (string, func(), error) {
	tmp, err := os.CreateTemp("", "import-*"+filepath.Ext(filename))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}
