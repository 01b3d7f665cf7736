package main

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"quizimages"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionName = "quizimages-review"

type Server struct {
	db        *quizimages.Store
	store     *sessions.CookieStore
	templates map[string]*template.Template
}

func main() {
	cfg := quizimages.ConfigFromEnv()
	quizimages.SetVerbose(cfg.Verbose)

	if cfg.DBDSN == "" {
		log.Fatal("QUIZIMAGES_DB_DSN must point at the run database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := quizimages.OpenStore(ctx, cfg.DBDriver, cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	secret := os.Getenv("REVIEW_SESSION_SECRET")
	if secret == "" {
		log.Printf("REVIEW_SESSION_SECRET not set, using a development secret")
		secret = "quizimages-review-dev-secret"
	}

	server := NewServer(db, sessions.NewCookieStore([]byte(secret)))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting review server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, server.Routes()))
}

// NewServer loads the page templates and wires the review handlers
func NewServer(db *quizimages.Store, store *sessions.CookieStore) *Server {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"join": strings.Join,
		"fmtTime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
		"default": func(value, defaultValue string) string {
			if value == "" {
				return defaultValue
			}
			return value
		},
	}

	templates := make(map[string]*template.Template)
	templateFiles := []struct {
		name string
		file string
	}{
		{"runs", "templates/runs.html"},
		{"run", "templates/run.html"},
		{"reviewer", "templates/reviewer.html"},
	}
	for _, tmpl := range templateFiles {
		templates[tmpl.name] = template.Must(template.New(tmpl.name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", tmpl.file))
	}

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		db:        db,
		store:     store,
		templates: templates,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", s.handleRuns)
	r.Get("/reviewer", s.handleReviewerForm)
	r.Post("/reviewer", s.handleSetReviewer)
	r.Route("/runs/{runID}", func(r chi.Router) {
		r.Get("/", s.handleRun)
		r.Get("/docx", s.handleDocx)
		r.Post("/questions/{questionID}/review", s.handleReview)
	})
	return r
}
