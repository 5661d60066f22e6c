package http

import (
	"net/http"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	}).Write(w)
}

// handleMetrics reports request, rate limit and detection counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	dm := s.detector.GetMetrics()
	NewResponse().JSON(map[string]any{
		"uptime":                time.Since(s.startedAt).String(),
		"requests_total":        tm.TotalRequests,
		"last_response_time_us": tm.AverageResponseTime,
		"rate_limited_total":    rm.Rejected,
		"rate_limit_clients":    rm.ClientCount,
		"suspicious_requests":   dm.SuspiciousRequests,
	}).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds core.LoginCredentials
	if err := decodeJSON(w, r, &creds); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	creds.UsernameOrEmail = sanitizeInput(creds.UsernameOrEmail)

	user, err := s.svc.Auth.Login(r.Context(), creds)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	SuccessResponse("Welcome back, "+user.Username, user).Write(w)
}

type signupForm struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form signupForm
	if err := decodeJSON(w, r, &form); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	user, err := s.svc.Auth.Signup(r.Context(), core.SignupCredentials{
		Username:        sanitizeInput(form.Username),
		Email:           sanitizeInput(form.Email),
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	CreatedResponse("Account created", user).Write(w)
}

// handleLogout ends the session and stops forecast refreshing.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.svc.Refresher != nil {
		if err := s.svc.Refresher.Disarm(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Stopping forecast refresher failed", log.FieldError, err)
		}
	}
	if err := s.svc.Auth.Logout(r.Context()); err != nil {
		FailureFor(err).Write(w)
		return
	}
	SuccessResponse("Signed out", nil).Write(w)
}
