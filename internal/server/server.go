package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tasklists/internal/result"
	"tasklists/internal/task"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Tasks is what the handlers need from task.Manager.
type Tasks interface {
	Board(ctx context.Context) (task.View, error)
	Add(ctx context.Context, content, listType string) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	tasks    Tasks
	store    Pinger
	exporter *result.Exporter
	basePath string
	pages    *template.Template
	now      func() time.Time

	shutdownTimeout time.Duration
}

type pageData struct {
	Title    string
	BasePath string
	View     task.View
}

// New builds a Server. basePath is the prefix the app is reachable under
// from the browser; routes themselves are registered without it.
func New(tasks Tasks, store Pinger, basePath string) (*Server, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		tasks:    tasks,
		store:    store,
		exporter: result.NewExporter(tasks),
		basePath: strings.TrimRight(basePath, "/"),
		pages:    pages,
		now:      time.Now,

		shutdownTimeout: 10 * time.Second,
	}, nil
}

func (s *Server) Handler() http.Handler {
	static, _ := fs.Sub(staticFS, "static")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /metodologia", s.handleMetodologia)
	mux.HandleFunc("POST /add", s.handleAdd)
	mux.HandleFunc("POST /delete/{id}", s.handleDelete)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	return logRequests(noCache(securityHeaders(mux)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled. It returns only after
// in-flight requests have finished or the shutdown timeout expired.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdown <- server.Shutdown(shutdownCtx)
	}()
	log.Printf("[Server] Listening on %s", ln.Addr())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// Serve returns as soon as Shutdown starts; wait for handlers to drain.
	if err := <-shutdown; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("[Server] Stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		log.Printf("[Server] Health check failed: %v", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, err := s.tasks.Board(r.Context())
	if err != nil {
		log.Printf("[Server] Error loading tasks: %v", err)
		http.Error(w, "error loading tasks", http.StatusInternalServerError)
		return
	}
	s.render(w, "index", pageData{Title: "Listas", BasePath: s.basePath, View: v})
}

func (s *Server) handleMetodologia(w http.ResponseWriter, r *http.Request) {
	s.render(w, "metodologia", pageData{Title: "Metodología", BasePath: s.basePath})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	_, err := s.tasks.Add(r.Context(), r.PostFormValue("content"), r.PostFormValue("listType"))
	if err != nil && !task.IsMissingInput(err) {
		log.Printf("[Server] Error adding task: %v", err)
		s.fallbackRedirect(w, r)
		return
	}
	s.refreshRedirect(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		log.Printf("[Server] Error deleting task: %v", err)
		s.fallbackRedirect(w, r)
		return
	}
	s.refreshRedirect(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	b, err := s.exporter.Export(r.Context(), format)
	if err != nil {
		if errors.Is(err, result.ErrUnknownFormat) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[Server] Export failed: %v", err)
		http.Error(w, "error exporting tasks", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", result.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tasks.%s"`, strings.ToLower(format)))
	_, _ = w.Write(b)
}

// refreshRedirect sends the browser back to the board with a query
// parameter that differs on every write so intermediary caches miss.
func (s *Server) refreshRedirect(w http.ResponseWriter, r *http.Request) {
	dest := s.basePath + "/?v=" + strconv.FormatInt(s.now().UnixMilli(), 10)
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (s *Server) fallbackRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.basePath+"/", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[Server] Error rendering %s: %v", name, err)
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
