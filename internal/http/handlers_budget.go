package http

import (
	"net/http"

	"finboard/internal/core"
)

type budgetsView struct {
	Budgets  []core.Budget         `json:"budgets"`
	Progress []core.BudgetProgress `json:"progress"`
	Overview core.BudgetOverview   `json:"overview"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.svc.Budgets.List(ctx)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	progress, err := s.svc.Budgets.Progress(ctx)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	overview, err := s.svc.Budgets.Overview(ctx)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	NewResponse().JSON(snapshot{
		Data:  budgetsView{Budgets: res.Data, Progress: progress, Overview: overview},
		Stale: res.Stale,
		Error: errorText(res.Err),
	}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req core.BudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b, err := s.svc.Budgets.Create(r.Context(), req)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	CreatedResponse("Budget created", b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req core.BudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b, err := s.svc.Budgets.Update(r.Context(), id, req)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	SuccessResponse("Budget updated", b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), id); err != nil {
		FailureFor(err).Write(w)
		return
	}
	SuccessResponse("Budget deleted", nil).Write(w)
}
