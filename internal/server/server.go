// Package server serves the dashboard over HTTP: the HTML page, the JSON
// model and the spreadsheet exports.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"superstore/internal/dashboard"
	"superstore/internal/export"
	"superstore/internal/filter"
)

// Viewer hands out the current data source for the length of a request.
type Viewer interface {
	View(ctx context.Context, fn func(dashboard.Source) error) error
}

// Server routes dashboard requests.
type Server struct {
	data   Viewer
	logger *zap.Logger
	mux    *http.ServeMux
}

// New builds the routes. A nil logger discards output.
func New(data Viewer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{data: data, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/dashboard", s.handleAPI)
	s.mux.HandleFunc("/export/", s.handleExport)
	s.mux.HandleFunc("/", s.handlePage)
	return s
}

// Handler returns the mux wrapped in the request id and access log
// middleware.
func (s *Server) Handler() http.Handler {
	return requestID(accessLog(s.logger, s.mux))
}

// ListenAndServe serves on addr until ctx is done, then shuts down, giving
// in-flight requests up to timeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", timeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	f, ok := s.parseFilter(w, r)
	if !ok {
		return
	}
	var page pageData
	err := s.data.View(r.Context(), func(src dashboard.Source) error {
		d, err := dashboard.Build(r.Context(), src, f)
		if err != nil {
			return err
		}
		page = newPageData(d)
		return nil
	})
	if err != nil {
		s.internalError(w, r, "build dashboard", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, page); err != nil {
		s.logger.Error("template error", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
	}
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	f, ok := s.parseFilter(w, r)
	if !ok {
		return
	}
	var d *dashboard.Dashboard
	err := s.data.View(r.Context(), func(src dashboard.Source) (err error) {
		d, err = dashboard.Build(r.Context(), src, f)
		return err
	})
	if err != nil {
		s.internalError(w, r, "build dashboard", err)
		return
	}
	s.writeJSON(w, d)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name, ok := exportName(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, ok := dashboard.LookupDownload(name); !ok {
		http.NotFound(w, r)
		return
	}
	f, ok := s.parseFilter(w, r)
	if !ok {
		return
	}
	var (
		data []byte
		dl   dashboard.Download
	)
	err := s.data.View(r.Context(), func(src dashboard.Source) (err error) {
		data, dl, err = dashboard.Workbook(r.Context(), src, f, name)
		return err
	})
	if errors.Is(err, dashboard.ErrUnknownTable) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.internalError(w, r, "export "+name, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	_, _ = w.Write(data)
}

// exportName extracts name from /export/{name}.xlsx.
func exportName(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/export/")
	if rest == path || !strings.HasSuffix(rest, ".xlsx") {
		return "", false
	}
	name := strings.TrimSuffix(rest, ".xlsx")
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func (s *Server) parseFilter(w http.ResponseWriter, r *http.Request) (filter.Filter, bool) {
	f, err := filter.FromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, "bad filter: "+err.Error(), http.StatusBadRequest)
		return f, false
	}
	return f, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, what string, err error) {
	http.Error(w, "internal error", http.StatusInternalServerError)
	s.logger.Error(what, zap.Error(err), zap.String("request_id", RequestID(r.Context())))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("encode error", zap.Error(err))
	}
}
