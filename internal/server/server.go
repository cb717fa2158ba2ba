// Package server serves the generated maps and GeoJSON files over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options configures the preview handler.
type Options struct {
	// OutputDir is the directory the batch commands write to.
	OutputDir string
	// MapFile is the HTML map served at "/", relative to OutputDir.
	MapFile string
}

// NewRouter returns a chi router exposing the contents of the output directory.
func NewRouter(opts Options) http.Handler {
	h := &handler{opts: opts, log: zap.L().With(zap.String("component", "server"))}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Get("/", h.index)
	r.Get("/geojson", h.list)
	r.Get("/geojson/{name}", h.geojson)

	return r
}

type handler struct {
	opts Options
	log  *zap.Logger
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.opts.OutputDir, filepath.Base(h.opts.MapFile))
	h.serveFile(w, r, path, "text/html; charset=utf-8")
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(h.opts.OutputDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.log.Error("list output dir", zap.String("dir", h.opts.OutputDir), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cannot read output directory"})
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && isGeoJSON(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string][]string{"files": names})
}

func (h *handler) geojson(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validName(name) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.serveFile(w, r, filepath.Join(h.opts.OutputDir, name), "application/geo+json")
}

func (h *handler) serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.log.Error("open file", zap.String("path", path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cannot open file"})
		return
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// validName accepts bare *.geojson file names only.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return isGeoJSON(name)
}

func isGeoJSON(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".geojson")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
