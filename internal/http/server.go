package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/csrf"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"rumba/internal/auth"
	"rumba/internal/backend"
	"rumba/internal/cache"
	"rumba/internal/core"
	"rumba/internal/form"
	"rumba/internal/log"
	"rumba/internal/middleware/ratelimit"
	"rumba/internal/middleware/security"
	"rumba/internal/middleware/trace"
	"rumba/internal/services"
	ports "rumba/internal/sheets"
	appweb "rumba/web"
)

const (
	maxDrafts        = 1000
	cleanupInterval  = 5 * time.Minute
	backendTimeout   = 7 * time.Second
	readinessTimeout = 5 * time.Second
)

// Page templates; each is parsed on top of layout.html and partials.html.
var pageFiles = []string{
	"dashboard.html",
	"form.html",
	"reports.html",
	"submissions.html",
	"login.html",
	"error.html",
}

// mdRenderer escapes raw HTML in notes; WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Options wires the server to its collaborators.
type Options struct {
	Addr               string
	Logger             *log.Logger
	Backend            *backend.BackendResult
	Sessions           *auth.SessionStore
	Authenticator      *auth.Authenticator
	CookieSecure       bool
	SessionTTL         time.Duration
	CSRFKey            []byte
	TrustedOrigins     []string
	DraftTTL           time.Duration
	RateLimitPerMinute int
	Now                func() time.Time
}

type appMetrics struct {
	started            time.Time
	submissions        atomic.Int64
	submissionFailures atomic.Int64
	validationFailures atomic.Int64
	eventsCreated      atomic.Int64
	loginFailures      atomic.Int64
	exports            atomic.Int64
}

type Server struct {
	http.Server

	logger *log.Logger
	pages  map[string]*template.Template
	frags  *template.Template

	submissions *services.SubmissionService
	events      *services.EventService
	lister      ports.SubmissionLister
	dashboard   ports.DashboardReader
	reports     ports.ReportReader
	ping        func(context.Context) error

	drafts   *form.DraftStore
	caches   *cache.Manager
	sessions *auth.SessionStore
	authn    *auth.Authenticator
	cookies  auth.Cookies

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  appMetrics
	now      func() time.Time

	forms map[string]formPage

	shutdownOnce sync.Once
}

// cleanerFunc lets the cache manager sweep stores that are not caches.
type cleanerFunc func() int

func (f cleanerFunc) CleanExpired() int { return f() }

// NewServer parses templates, builds the middleware chain and registers
// routes. Background sweepers run until Shutdown.
func NewServer(opts Options) (*Server, error) {
	if opts.Backend == nil || opts.Backend.Backend == nil {
		return nil, errors.New("missing backend")
	}
	if opts.Sessions == nil || opts.Authenticator == nil {
		return nil, errors.New("missing session store or authenticator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDiscard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	draftTTL := opts.DraftTTL
	if draftTTL <= 0 {
		draftTTL = 30 * time.Minute
	}

	b := opts.Backend
	s := &Server{
		logger:      logger.WithComponent(log.ComponentHTTP),
		submissions: b.Submissions,
		events:      b.Events,
		lister:      b.Backend,
		dashboard:   b.Backend,
		reports:     b.Backend,
		ping:        b.Ping,
		sessions:    opts.Sessions,
		authn:       opts.Authenticator,
		cookies:     auth.Cookies{Secure: opts.CookieSecure, TTL: opts.SessionTTL},
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:    security.NewDetector(logger),
		tracer:      trace.NewMiddleware(),
		now:         now,
		forms:       formPages(),
	}
	if s.submissions == nil {
		s.submissions = services.NewSubmissionService(b.Backend, b.Backend, logger)
	}
	if s.events == nil {
		s.events = services.NewEventService(b.Backend, logger)
	}
	s.metrics.started = now()

	draftCache := cache.NewLRUCache[*form.Draft](maxDrafts, draftTTL, cache.WithSlidingExpiry())
	s.drafts = form.NewDraftStore(draftCache)
	s.caches = cache.NewManager(logger)
	s.caches.Register("drafts", draftCache)
	s.caches.Register("sessions", cleanerFunc(s.sessions.Cleanup))
	s.caches.StartCleanup(cleanupInterval)

	if err := s.parseTemplates(); err != nil {
		s.limiter.Stop()
		s.caches.Stop()
		return nil, err
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	protected := func(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", protected(s.handleMetrics))

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /{$}", protected(s.handleDashboard))
	mux.Handle("GET /events", protected(s.handleEventsTable))
	mux.Handle("GET /reports", protected(s.handleReports))
	mux.Handle("GET /reports/export", protected(s.handleExport))
	mux.Handle("GET /submissions", protected(s.handleSubmissions))

	for _, p := range s.forms {
		path := p.path()
		mux.Handle("GET "+path, protected(s.handleFormPage(p)))
		mux.Handle("POST "+path, protected(s.handleFormSubmit(p)))
		mux.Handle("GET "+p.sectionsPath(), protected(s.handleSections(p)))
		if p.groups {
			mux.Handle("POST "+path+"/groups/{group}", protected(s.handleAddItem(p)))
			mux.Handle("DELETE "+path+"/groups/{group}/{item}", protected(s.handleRemoveItem(p)))
			mux.Handle("PATCH "+path+"/groups/{group}/{item}", protected(s.handleUpdateItem(p)))
		}
	}

	mux.HandleFunc("/", s.handleNotFound)
}

// middleware wraps mux, outermost first: request ID, request logging,
// security headers, scanner detection, rate limiting of mutations, CSRF
// and session lookup.
func (s *Server) middleware(mux http.Handler, opts Options) http.Handler {
	var h http.Handler = mux
	h = auth.Middleware(s.sessions)(h)
	h = auth.CSRF(opts.CSRFKey, opts.CookieSecure, opts.TrustedOrigins)(h)
	h = s.limitMutations(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.Middleware(s.logger, trace.RequestID, s.detector.ExtractClientIP)(h)
	h = s.tracer.Middleware(h)
	return h
}

// limitMutations rate limits everything except safe methods, so page
// loads and static assets never count against the budget.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.").Write(w)
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"aed":       core.FormatAED,
		"aedInt":    func(v int64) string { return core.FormatAED(decimal.NewFromInt(v)) },
		"inputName": form.InputName,
		"inc":       func(i int) int { return i + 1 },
		"abs": func(i int) int {
			if i < 0 {
				return -i
			}
			return i
		},
		"trendClass": trendClass,
	}
}

func (s *Server) parseTemplates() error {
	base, err := template.New("base").Funcs(s.funcs()).
		ParseFS(appweb.TemplatesFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return fmt.Errorf("parse base templates: %w", err)
	}
	s.pages = make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		t, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone base for %s: %w", name, err)
		}
		if _, err := t.ParseFS(appweb.TemplatesFS, "templates/"+name); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		s.pages[name] = t
	}
	s.frags = base
	return nil
}

// pageData is what layout.html renders around a page's content.
type pageData struct {
	Title     string
	Active    string
	User      string
	CSRFToken string
	CSRFField template.HTML
	Flash     *auth.Flash
	Content   any
}

func (s *Server) newPage(r *http.Request, title, active string, content any) pageData {
	p := pageData{
		Title:     title,
		Active:    active,
		CSRFToken: csrf.Token(r),
		CSRFField: csrf.TemplateField(r),
		Content:   content,
	}
	if sess, ok := auth.FromContext(r.Context()); ok {
		p.User = sess.User
		if f, ok := s.sessions.PopFlash(sess.ID); ok {
			p.Flash = &f
		}
	}
	return p
}

// renderPage executes a full page. Rendering into a buffer first keeps a
// template failure from producing half a page with a 200 status.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := s.pages[page]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Unknown page template", "template", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Page template execution failed",
			log.FieldError, err,
			"template", page,
			log.FieldOperation, log.OpRender)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderFragment executes a partial for an htmx swap. resp carries the
// status and triggers.
func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.frags.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Fragment template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
		InternalServerError("Something went wrong. Please reload the page.").Write(w)
		return
	}
	resp.BodyHTML(buf.String()).Write(w)
}

// Shutdown stops the background sweepers and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
