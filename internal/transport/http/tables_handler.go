// Package http exposes the published output tables read-only over HTTP for
// the presentation layer: table listing, CSV download, health and metrics.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ecomcli/internal/errors"
	"ecomcli/internal/exporter"
)

// publishedTables is the closed set of table names the handler will serve.
// Requests outside this set are rejected before touching the filesystem.
var publishedTables = map[string]struct{}{
	exporter.TableCanonicalCustomers: {},
	exporter.TableOrderFacts:         {},
	exporter.TableCustomerRFM:        {},
	exporter.TableTimeFeatures:       {},
	exporter.TableCustomerCohorts:    {},
	exporter.TableRetention:          {},
	exporter.TableSegmentRetention:   {},
	exporter.TablePrioritized:        {},
	exporter.TableDateDimension:      {},
}

// TableHandler serves the published run's tables.
type TableHandler struct {
	publishedDir string
	logger       *slog.Logger
}

// NewTableHandler creates a handler over the published output directory.
func NewTableHandler(publishedDir string, logger *slog.Logger) *TableHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableHandler{
		publishedDir: publishedDir,
		logger:       logger.With(slog.String("component", "table_handler")),
	}
}

// Routes returns the table routes.
func (h *TableHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListTables)
	r.Route("/{table}", func(r chi.Router) {
		r.Use(h.TableCtx)
		r.Get("/", h.GetTable)
		r.Get("/download", h.DownloadTable)
	})
	return r
}

// TableCtx validates the table name against the published set.
func (h *TableHandler) TableCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "table")
		if _, ok := publishedTables[name]; !ok {
			render.Render(w, r, apierrors.ErrInvalidTableName)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tableInfo is one entry of the table listing.
type tableInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Modified  string `json:"modified"`
}

// ListTables returns the published tables with file metadata.
func (h *TableHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.publishedDir)
	if os.IsNotExist(err) {
		render.Render(w, r, apierrors.ErrNoPublishedRun)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list published tables", "error", err)
		render.Render(w, r, apierrors.ErrInternal)
		return
	}

	tables := make([]tableInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ".csv" {
			continue
		}
		stem := name[:len(name)-len(".csv")]
		if _, ok := publishedTables[stem]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		tables = append(tables, tableInfo{
			Name:      stem,
			SizeBytes: info.Size(),
			Modified:  info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	render.JSON(w, r, map[string]interface{}{"tables": tables})
}

// GetTable streams the table CSV inline.
func (h *TableHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	h.serveTable(w, r, "inline")
}

// DownloadTable streams the table CSV as an attachment.
func (h *TableHandler) DownloadTable(w http.ResponseWriter, r *http.Request) {
	h.serveTable(w, r, "attachment")
}

func (h *TableHandler) serveTable(w http.ResponseWriter, r *http.Request, disposition string) {
	name := chi.URLParam(r, "table")
	path := filepath.Join(h.publishedDir, name+".csv")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		render.Render(w, r, apierrors.ErrTableNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`%s; filename="%s.csv"`, disposition, name))
	http.ServeFile(w, r, path)
}
