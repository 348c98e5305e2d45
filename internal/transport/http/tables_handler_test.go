package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomcli/internal/exporter"
)

func publishedFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := "\xEF\xBB\xBFcustomer_unique_id,monetary\nu1,150.00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, exporter.TableCustomerRFM+".csv"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, exporter.TableOrderFacts+".csv"), []byte("\xEF\xBB\xBForder_id\no1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0644))
	return dir
}

func TestListTables(t *testing.T) {
	router := NewRouter(publishedFixture(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tables []struct {
			Name      string `json:"name"`
			SizeBytes int64  `json:"size_bytes"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tables, 2)

	names := []string{body.Tables[0].Name, body.Tables[1].Name}
	assert.Contains(t, names, exporter.TableCustomerRFM)
	assert.Contains(t, names, exporter.TableOrderFacts)
}

func TestListTablesNoPublishedRun(t *testing.T) {
	router := NewRouter(filepath.Join(t.TempDir(), "never-published"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NO_PUBLISHED_RUN", body["error_code"])
}

func TestGetTable(t *testing.T) {
	router := NewRouter(publishedFixture(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/"+exporter.TableCustomerRFM, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inline")
	assert.Contains(t, rec.Body.String(), "u1,150.00")
}

func TestDownloadTable(t *testing.T) {
	router := NewRouter(publishedFixture(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/"+exporter.TableOrderFacts+"/download", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="`+exporter.TableOrderFacts+`.csv"`)
}

func TestGetTableRejectsUnknownName(t *testing.T) {
	router := NewRouter(publishedFixture(t), nil)

	// A path traversal attempt never reaches the filesystem.
	req := httptest.NewRequest(http.MethodGet, "/api/tables/secrets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_TABLE_NAME", body["error_code"])
}

func TestGetTableNotYetPublished(t *testing.T) {
	router := NewRouter(publishedFixture(t), nil)

	// A valid name whose file is absent from the published run.
	req := httptest.NewRequest(http.MethodGet, "/api/tables/"+exporter.TableDateDimension, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	dir := publishedFixture(t)
	router := NewRouter(dir, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["run_published"])
}

func TestHealthzBeforeFirstPublish(t *testing.T) {
	router := NewRouter(filepath.Join(t.TempDir(), "never-published"), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["run_published"])
}
