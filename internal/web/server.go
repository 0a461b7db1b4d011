// Package web serves the browser front end: upload a table, pick an operation,
// see the result.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/sync/semaphore"

	"github.com/KaramelBytes/tabula/internal/chart"
	"github.com/KaramelBytes/tabula/internal/frame"
	"github.com/KaramelBytes/tabula/internal/logging"
	"github.com/KaramelBytes/tabula/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// CookieName carries the session id.
const CookieName = "tabula_session"

const introMarkdown = `Upload a **CSV**, **TSV** or **XLSX** file, then pick an operation.

- *Shape*, *Information*, *Describe*, *Unique* and *Missing values* report on the table.
- *One-Hot Encoding* and dropping rows with missing values can be previewed or applied.
- *Boxplot*, *Histogram* and *Countplot* draw a column, optionally split by a hue column.

Results are kept for this browser session only.`

// Options configures a Server.
type Options struct {
	MaxUploadBytes    int64
	PreviewRows       int
	CookieSecure      bool
	RenderConcurrency int64
	Chart             chart.Options
	Load              frame.LoadOptions
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes:    50 << 20,
		PreviewRows:       20,
		RenderConcurrency: 4,
		Chart:             chart.DefaultOptions(),
		Load:              frame.DefaultLoadOptions(),
	}
}

// Server holds the router and shared state.
type Server struct {
	router  *chi.Mux
	store   *session.Store
	tmpl    *template.Template
	opt     Options
	renders *semaphore.Weighted
	intro   template.HTML
	log     *logging.Logger
}

// New builds the server and its routes.
func New(store *session.Store, opt Options, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Discard()
	}
	def := DefaultOptions()
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = def.MaxUploadBytes
	}
	if opt.RenderConcurrency <= 0 {
		opt.RenderConcurrency = def.RenderConcurrency
	}
	if opt.Load.Charset == "" {
		opt.Load = def.Load
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		router:  chi.NewRouter(),
		store:   store,
		tmpl:    tmpl,
		opt:     opt,
		renders: semaphore.NewWeighted(opt.RenderConcurrency),
		intro:   renderMarkdown(introMarkdown),
		log:     log.With("Web"),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/", s.handleIndex)
		r.Post("/upload", s.handleUpload)
		r.Get("/explore", s.handleExploreForm)
		r.Post("/explore", s.handleExplore)
		r.Post("/reset", s.handleReset)
		r.Get("/plot.png", s.handlePlot)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

type sessionKey struct{}

// withSession loads the browser's session, creating one when the cookie is
// missing or stale.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess session.Session
		found := false
		if c, err := r.Cookie(CookieName); err == nil {
			if got, err := s.store.Get(c.Value); err == nil {
				sess, found = got, true
			}
		}
		if !found {
			sess = s.store.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.opt.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) session.Session {
	sess, _ := r.Context().Value(sessionKey{}).(session.Session)
	return sess
}

// render executes the page into a buffer so template errors never produce a
// half-written response.
func (s *Server) render(w http.ResponseWriter, status int, v pageView) {
	v.Intro = s.intro
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "page.html", v); err != nil {
		s.log.Error("render page: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderMarkdown(src string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(src), p, r))
}
