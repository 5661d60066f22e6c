package http

import (
	"net/http"

	"finboard/internal/core"
	"finboard/internal/services"
)

type dashboardResponse struct {
	User core.User `json:"user"`
	services.DashboardView
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Dashboard.Load(r.Context())
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	user, _ := r.Context().Value(userContextKey).(core.User)
	NewResponse().JSON(dashboardResponse{User: user, DashboardView: view}).Write(w)
}

type forecastResponse struct {
	services.ForecastView
	Error string `json:"error,omitempty"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Forecast.Monthly(r.Context())
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	NewResponse().JSON(forecastResponse{ForecastView: view, Error: errorText(view.Err)}).Write(w)
}

type visibilityForm struct {
	Visible bool `json:"visible"`
}

// handleVisibility forwards the page visibility signal to the refresher.
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var form visibilityForm
	if err := decodeJSON(w, r, &form); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if s.svc.Refresher != nil {
		if err := s.svc.Refresher.SetVisible(r.Context(), form.Visible); err != nil {
			FailureFor(err).Write(w)
			return
		}
	}
	NewResponse().JSON(form).Write(w)
}
