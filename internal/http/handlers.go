package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rumba/internal/auth"
	"rumba/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.metrics.started).Round(time.Second).String(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if len(s.pages) == 0 {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ping == nil {
		checks["backend"] = "ok"
	} else if err := s.ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed",
			log.FieldError, err,
			log.FieldComponent, log.ComponentBackend)
		checks["backend"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	checks["drafts"] = map[string]any{"entries": s.drafts.Size()}
	checks["sessions"] = map[string]any{"entries": s.sessions.Size()}

	response := map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	gauge("http_requests_in_flight", "Requests currently being served", traceMetrics.InFlight)
	counter("http_client_errors_total", "Responses with a 4xx status", traceMetrics.ClientErrors)
	counter("http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)
	fmt.Fprintf(w, "# HELP http_request_duration_ms_avg Mean request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_ms_avg gauge\n")
	fmt.Fprintf(w, "http_request_duration_ms_avg %.2f\n\n", traceMetrics.AverageDurationMs())

	counter("submissions_total", "Submissions recorded", s.metrics.submissions.Load())
	counter("submission_failures_total", "Submissions the backend rejected", s.metrics.submissionFailures.Load())
	counter("validation_failures_total", "Form posts rejected by validation", s.metrics.validationFailures.Load())
	counter("events_created_total", "Catalog events created", s.metrics.eventsCreated.Load())
	counter("report_exports_total", "Workbooks exported", s.metrics.exports.Load())
	counter("login_failures_total", "Rejected login attempts", s.metrics.loginFailures.Load())

	gauge("drafts_active", "Live expense drafts", int64(s.drafts.Size()))
	gauge("sessions_active", "Live login sessions", int64(s.sessions.Size()))

	counter("rate_limit_rejected_total", "Requests rejected by the rate limiter", rateLimitMetrics.Rejected)
	gauge("rate_limit_clients", "Clients tracked by the rate limiter", rateLimitMetrics.ClientCount)
	counter("suspicious_requests_total", "Total suspicious requests detected", s.detector.SuspiciousCount())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", s.now().Sub(s.metrics.started).Seconds())
}

type loginView struct {
	Email string
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, http.StatusOK, "login.html", s.newPage(r, "Sign in", "login", loginView{}))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	email := sanitizeInput(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")

	if err := s.authn.Check(email, password); err != nil {
		s.metrics.loginFailures.Add(1)
		s.logger.WarnContext(r.Context(), "Login failed",
			log.FieldComponent, log.ComponentSecurity,
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldUser, email)
		view := loginView{Email: email, Error: "Invalid email or password."}
		s.renderPage(w, r, http.StatusUnauthorized, "login.html", s.newPage(r, "Sign in", "login", view))
		return
	}

	sess, err := s.sessions.Create(email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create session",
			log.FieldError, err,
			log.FieldComponent, log.ComponentAuth)
		InternalServerError("Could not sign you in. Please try again.").Write(w)
		return
	}
	s.cookies.Set(w, sess.ID)
	s.logger.InfoContext(r.Context(), "User signed in",
		log.FieldComponent, log.ComponentAuth,
		log.FieldUser, sess.User)
	s.navigate(w, r, "/")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.Token(r); token != "" {
		s.sessions.Delete(token)
	}
	s.cookies.Clear(w)
	s.navigate(w, r, "/login")
}

type errorView struct {
	Status  int
	Heading string
	Message string
}

// handleNotFound catches every path no other route claimed.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.logger.DebugContext(r.Context(), "Route not found",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if isHTMX(r) {
		NotFoundError("Page not found.").WriteHeader(w)
		return
	}
	s.renderError(w, r, http.StatusNotFound, "Page not found",
		"The page you are looking for does not exist.")
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	view := errorView{Status: status, Heading: heading, Message: message}
	s.renderPage(w, r, status, "error.html", s.newPage(r, heading, "", view))
}
