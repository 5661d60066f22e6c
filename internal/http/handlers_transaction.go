package http

import (
	"net/http"

	"finboard/internal/core"
	"finboard/internal/services"
)

type transactionsResponse struct {
	services.TransactionPage
	Error string `json:"error,omitempty"`
}

// handleListTransactions serves ?type=&category=&search=&page=.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := core.ParseTransactionFilter(q.Get("type"), q.Get("category"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	page, err := s.svc.Transactions.Browse(r.Context(), filter, sanitizeInput(q.Get("search")), pageParam(r))
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	NewResponse().JSON(transactionsResponse{TransactionPage: page, Error: errorText(page.Err)}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req core.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	req.Description = sanitizeInput(req.Description)
	tx, err := s.svc.Transactions.Create(r.Context(), req)
	if err != nil {
		FailureFor(err).Write(w)
		return
	}
	CreatedResponse("Transaction added", tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), id); err != nil {
		FailureFor(err).Write(w)
		return
	}
	SuccessResponse("Transaction deleted", nil).Write(w)
}
