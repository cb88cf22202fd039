package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/config"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/pipeline"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/runs"
)

func testHandler() (*RunsHandler, *runs.Store) {
	cfg := &config.Config{
		MaxUploadBytes:  1 << 20,
		MaxStoredRuns:   10,
		DateColumn:      "fecha",
		PartnerColumn:   "cliente",
		AmountColumn:    "importe",
		StrictDownloads: true,
	}
	store := runs.NewStore(cfg.MaxStoredRuns)
	validator := pipeline.NewValidator(zerolog.Nop())
	return NewRunsHandler(store, validator, cfg, zerolog.Nop()), store
}

func multipartRequest(t *testing.T, files map[string]string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/runs", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

const cleanCSV = "fecha,cliente,importe\n2020-01-10,ACME,\"100,00\"\n2020-02-01,Globex,\"20,00\"\n"

func TestCreateRun_Clean(t *testing.T) {
	h, _ := testHandler()

	rr := httptest.NewRecorder()
	h.CreateRun(rr, multipartRequest(t, map[string]string{"ventas.csv": cleanCSV}, nil))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var rec runs.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, []string{"ventas.csv"}, rec.SourceFiles)
	assert.Equal(t, 2, rec.BronzeRows)
	assert.Equal(t, 2, rec.SilverRows)
	assert.Equal(t, 2, rec.GoldRows)
	assert.Empty(t, rec.Errors)
	assert.Equal(t, 100.0, rec.Veracity)
	assert.Equal(t, 120.0, rec.TotalAmount)
	assert.Contains(t, rec.Summary, "passed")
}

func TestCreateRun_RequiresFiles(t *testing.T) {
	h, _ := testHandler()

	rr := httptest.NewRecorder()
	h.CreateRun(rr, multipartRequest(t, nil, map[string]string{"date_col": "fecha"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRun_BadMappingIsUnprocessable(t *testing.T) {
	h, store := testHandler()

	rr := httptest.NewRecorder()
	req := multipartRequest(t,
		map[string]string{"ventas.csv": cleanCSV},
		map[string]string{"amount_col": "no_such_column"},
	)
	h.CreateRun(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	var rec runs.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.Errors)
	assert.Equal(t, 2, rec.BronzeRows)
	assert.Equal(t, 0, rec.SilverRows)

	// Bronze stays inspectable even though aggregation was aborted.
	stored, err := store.Get(rec.RunID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Bronze)
	assert.Nil(t, stored.Silver)
}

func TestGetRun(t *testing.T) {
	h, _ := testHandler()

	rr := httptest.NewRecorder()
	h.CreateRun(rr, multipartRequest(t, map[string]string{"ventas.csv": cleanCSV}, nil))
	var rec runs.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))

	rr = httptest.NewRecorder()
	h.GetRun(rr, httptest.NewRequest(http.MethodGet, "/api/runs/"+rec.RunID, nil), rec.RunID)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.GetRun(rr, httptest.NewRequest(http.MethodGet, "/api/runs/unknown", nil), "unknown")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDownloadArtifact(t *testing.T) {
	h, _ := testHandler()

	rr := httptest.NewRecorder()
	h.CreateRun(rr, multipartRequest(t, map[string]string{"ventas.csv": cleanCSV}, nil))
	var rec runs.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))

	rr = httptest.NewRecorder()
	h.DownloadArtifact(rr, httptest.NewRequest(http.MethodGet, "/", nil), rec.RunID, "bronze")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "date,partner,amount,source_file,ingested_at"))

	rr = httptest.NewRecorder()
	h.DownloadArtifact(rr, httptest.NewRequest(http.MethodGet, "/", nil), rec.RunID, "silver")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.DownloadArtifact(rr, httptest.NewRequest(http.MethodGet, "/", nil), rec.RunID, "platinum")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.DownloadArtifact(rr, httptest.NewRequest(http.MethodGet, "/", nil), "unknown", "bronze")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDownloadArtifact_StrictWithholdsAggregates(t *testing.T) {
	h, _ := testHandler()

	dirty := "fecha,cliente,importe\n2020-01-10,ACME,\"-5,00\"\n"
	rr := httptest.NewRecorder()
	h.CreateRun(rr, multipartRequest(t, map[string]string{"dirty.csv": dirty}, nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var rec runs.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	require.NotEmpty(t, rec.Errors)

	rr = httptest.NewRecorder()
	h.DownloadArtifact(rr, httptest.NewRequest(http.MethodGet, "/", nil), rec.RunID, "silver")
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Bronze is always downloadable so the operator can find the bad rows.
	rr = httptest.NewRecorder()
	h.DownloadArtifact(rr, httptest.NewRequest(http.MethodGet, "/", nil), rec.RunID, "bronze")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListRuns(t *testing.T) {
	h, _ := testHandler()

	rr := httptest.NewRecorder()
	h.CreateRun(rr, multipartRequest(t, map[string]string{"a.csv": cleanCSV}, nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.ListRuns(rr, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}
