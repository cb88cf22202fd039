package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/api/middleware"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/config"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/csvio"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/pipeline"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/runs"
)

// RunsHandler handles pipeline run endpoints.
type RunsHandler struct {
	store     *runs.Store
	validator *pipeline.Validator
	cfg       *config.Config
	log       zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store *runs.Store, validator *pipeline.Validator, cfg *config.Config, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store:     store,
		validator: validator,
		cfg:       cfg,
		log:       log,
	}
}

// CreateRun handles POST /api/runs. It expects a multipart form with one or
// more CSV files under "files" and optional mapping fields date_col,
// partner_col and amount_col; omitted fields fall back to the configured
// defaults. The full pipeline runs synchronously and the run summary comes
// back in the response.
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	mapping := pipeline.Mapping{
		DateColumn:    formValue(r, "date_col", h.cfg.DateColumn),
		PartnerColumn: formValue(r, "partner_col", h.cfg.PartnerColumn),
		AmountColumn:  formValue(r, "amount_col", h.cfg.AmountColumn),
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "At least one CSV file is required")
		return
	}

	batches := make([]pipeline.RawBatch, 0, len(fileHeaders))
	sourceFiles := make([]string, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Failed to open %s", fh.Filename))
			return
		}
		t, err := csvio.Read(f)
		f.Close()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse %s as CSV", fh.Filename))
			return
		}
		batches = append(batches, pipeline.RawBatch{SourceName: fh.Filename, Table: t})
		sourceFiles = append(sourceFiles, fh.Filename)
	}

	state, runErr := pipeline.Run(ctx, h.validator, mapping, batches)
	if runErr != nil && !errors.Is(runErr, pipeline.ErrMissingColumn) {
		h.log.Error().Err(runErr).Msg("Pipeline run failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Pipeline run failed")
		return
	}

	rec, err := h.buildRecord(state, sourceFiles)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", state.RunID).Msg("Failed to encode run artifacts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to encode run artifacts")
		return
	}

	if err := h.store.Save(rec); err != nil {
		h.log.Error().Err(err).Str("run_id", rec.RunID).Msg("Failed to store run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store run")
		return
	}

	h.log.Info().
		Str("run_id", rec.RunID).
		Int("batches", len(batches)).
		Int("bronze_rows", rec.BronzeRows).
		Float64("veracity", rec.Veracity).
		Int("findings", len(rec.Errors)).
		Msg("Pipeline run completed")

	// A mapping that leaves a required column out is a caller bug: bronze and
	// the findings are still stored, but the run is reported as unprocessable.
	status := http.StatusCreated
	if runErr != nil {
		status = http.StatusUnprocessableEntity
	}
	middleware.WriteJSON(w, status, rec)
}

// ListRuns handles GET /api/runs.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	records := h.store.List()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  records,
		"count": len(records),
	})
}

// GetRun handles GET /api/runs/{id}.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, runID string) {
	rec, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rec)
}

// DownloadArtifact handles GET /api/runs/{id}/{layer}.csv. Silver and gold
// downloads are withheld with 409 while the run has validation findings and
// strict downloads are on; bronze is always available so the operator can
// inspect the offending rows.
func (h *RunsHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request, runID, layer string) {
	rec, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	data, ok := rec.Artifact(layer)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown artifact; expected bronze, silver or gold")
		return
	}

	if layer != "bronze" && h.cfg.StrictDownloads && len(rec.Errors) > 0 {
		middleware.WriteError(w, http.StatusConflict, "Run has validation findings; resolve them before downloading aggregates")
		return
	}
	if data == nil {
		middleware.WriteError(w, http.StatusConflict, "Artifact was not produced for this run")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", layer))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// buildRecord encodes the run artifacts and assembles the stored record.
func (h *RunsHandler) buildRecord(state *pipeline.RunState, sourceFiles []string) (*runs.Record, error) {
	rec := &runs.Record{
		RunID:       state.RunID,
		CreatedAt:   time.Now().UTC(),
		SourceFiles: sourceFiles,
		Errors:      state.Errors,
		Summary:     pipeline.Summary(state.Errors),
		Veracity:    state.Veracity,
		TotalAmount: state.TotalAmount(),
	}

	if state.Bronze != nil {
		data, err := csvio.Encode(state.Bronze)
		if err != nil {
			return nil, fmt.Errorf("encode bronze: %w", err)
		}
		rec.Bronze = data
		rec.BronzeRows = state.Bronze.Len()
	}
	if state.Silver != nil {
		data, err := csvio.Encode(state.Silver)
		if err != nil {
			return nil, fmt.Errorf("encode silver: %w", err)
		}
		rec.Silver = data
		rec.SilverRows = state.Silver.Len()
	}
	if state.Gold != nil {
		data, err := csvio.Encode(state.Gold)
		if err != nil {
			return nil, fmt.Errorf("encode gold: %w", err)
		}
		rec.Gold = data
		rec.GoldRows = state.Gold.Len()
	}
	return rec, nil
}

func formValue(r *http.Request, key, fallback string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return fallback
}
