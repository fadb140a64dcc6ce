// Package ui is the local preview app: upload a CSV export, pick an
// analysis, and see the resulting tables rendered in the browser. It is a
// reviewing surface, not a deployment target.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"studykit/app"
	internal "studykit/internal"
)

//go:embed templates/*
var embeddedFiles embed.FS

// Config holds preview app settings.
type Config struct {
	Port string
}

// App is the preview web application.
type App struct {
	router    *chi.Mux
	service   *app.AnalysisService
	templates *template.Template
	logger    *internal.Logger
	port      string
}

// NewApp creates the preview app around an analysis service.
func NewApp(cfg Config, service *app.AnalysisService) (*App, error) {
	funcMap := template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}

	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		templates: templates,
		logger:    internal.NewDefaultLogger(),
		port:      cfg.Port,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/analyze", a.handleAnalyze)
	a.router.Get("/demo", a.handleDemo)
}

// Router exposes the handler for serving and tests.
func (a *App) Router() http.Handler {
	return a.router
}

// Start runs the HTTP server; it blocks until the server stops.
func (a *App) Start() error {
	addr := ":" + a.port
	a.logger.Info("Preview app listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
