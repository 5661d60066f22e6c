package http

import (
	"net/http"

	"finboard/internal/core"
)

// handleListCategories serves every category, or one type with ?type=.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if typ := r.URL.Query().Get("type"); typ != "" && typ != "all" {
		t, err := core.ParseEntryType(typ)
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		cats, err := s.svc.Categories.ListByType(r.Context(), t)
		if err != nil {
			FailureFor(err).Write(w)
			return
		}
		NewResponse().JSON(snapshot{Data: cats}).Write(w)
		return
	}

	res, err := s.svc.Categories.List(r.Context())
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	NewResponse().JSON(snapshot{Data: res.Data, Stale: res.Stale, Error: errorText(res.Err)}).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req core.CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	req.Name = sanitizeInput(req.Name)
	c, err := s.svc.Categories.Create(r.Context(), req)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	CreatedResponse("Category created", c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), id); err != nil {
		FailureFor(err).Write(w)
		return
	}
	SuccessResponse("Category deleted", nil).Write(w)
}
