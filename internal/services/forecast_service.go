package services

import (
	"context"
	"errors"
	"sync"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/query"
)

// ForecastService serves the AI monthly forecast behind the unlock gate.
type ForecastService struct {
	base
	auth         *AuthService
	transactions *TransactionService

	mu       sync.Mutex
	onLoaded []func()
}

func NewForecastService(api FinanceAPI, q *query.Client, auth *AuthService, transactions *TransactionService, opts ...Option) *ForecastService {
	return &ForecastService{
		base:         newBase(api, q, log.ComponentForecast, opts),
		auth:         auth,
		transactions: transactions,
	}
}

// OnLoaded registers fn to run after each successful forecast fetch.
func (s *ForecastService) OnLoaded(fn func()) {
	s.mu.Lock()
	s.onLoaded = append(s.onLoaded, fn)
	s.mu.Unlock()
}

// Gate reports whether the forecast may be requested. A signed-out user
// yields a closed gate, not an error.
func (s *ForecastService) Gate(ctx context.Context) (core.ForecastGate, error) {
	user, err := s.auth.CurrentUser(ctx)
	if errors.Is(err, ErrNotAuthenticated) {
		return core.ForecastGate{}, nil
	}
	if err != nil {
		return core.ForecastGate{}, err
	}
	count, err := s.transactions.Count(ctx)
	if err != nil {
		return core.ForecastGate{UserID: user.ID}, err
	}
	return core.ForecastGate{UserID: user.ID, TransactionCount: count}, nil
}

// ForecastView is the forecast panel: either the forecast or, while
// locked, the progress toward unlocking it.
type ForecastView struct {
	Gate           core.ForecastGate      `json:"gate"`
	Locked         bool                   `json:"locked"`
	UnlockProgress float64                `json:"unlockProgress,omitempty"`
	UnlockMessage  string                 `json:"unlockMessage,omitempty"`
	Forecast       *core.MonthlyForecast  `json:"forecast,omitempty"`
	Progress       *core.ForecastProgress `json:"progress,omitempty"`
	Critical       []core.ForecastWarning `json:"critical,omitempty"`
	Stale          bool                   `json:"stale,omitempty"`
	Err            error                  `json:"-"`
}

func (s *ForecastService) options(userID string) query.Options {
	return query.Options{
		Key:       ForecastKey(userID),
		StaleTime: ForecastStaleTime,
		Retry:     query.RetryUnless4xx(forecastRetries),
	}
}

// Monthly returns the forecast view. Below the gate the forecast key is
// never queried.
func (s *ForecastService) Monthly(ctx context.Context) (ForecastView, error) {
	gate, err := s.Gate(ctx)
	if err != nil {
		return ForecastView{}, err
	}
	if !gate.Open() {
		return lockedView(gate), nil
	}

	res, err := query.Fetch(ctx, s.q, s.options(gate.UserID), func(ctx context.Context) (core.MonthlyForecast, error) {
		return s.api.MonthlyForecast(ctx, gate.UserID)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Forecast unavailable", log.FieldUserID, gate.UserID, log.FieldError, err)
		return ForecastView{}, err
	}
	s.loaded()
	return s.view(gate, res), nil
}

// Refresh refetches the forecast unless the gate is closed or a fetch is
// already in flight. It reports whether a fetch ran.
func (s *ForecastService) Refresh(ctx context.Context) (bool, error) {
	gate, err := s.Gate(ctx)
	if err != nil {
		return false, err
	}
	if !gate.Open() {
		return false, nil
	}
	opts := s.options(gate.UserID)
	if s.q.IsFetching(opts.Key) {
		s.logger.DebugContext(ctx, "Forecast fetch already in flight, skipping refresh", log.FieldCacheKey, opts.Key.String())
		return false, nil
	}
	res, err := query.Refetch(ctx, s.q, opts, func(ctx context.Context) (core.MonthlyForecast, error) {
		return s.api.MonthlyForecast(ctx, gate.UserID)
	})
	if err != nil {
		return true, err
	}
	if res.Err != nil {
		return true, res.Err
	}
	s.logger.InfoContext(ctx, "Forecast refreshed", log.FieldOperation, log.OpRefresh, log.FieldUserID, gate.UserID)
	return true, nil
}

// GateOpen is the worker's check before each tick.
func (s *ForecastService) GateOpen(ctx context.Context) bool {
	gate, err := s.Gate(ctx)
	return err == nil && gate.Open()
}

func (s *ForecastService) loaded() {
	s.mu.Lock()
	fns := append([]func(){}, s.onLoaded...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *ForecastService) view(gate core.ForecastGate, res query.Result[core.MonthlyForecast]) ForecastView {
	f := res.Data
	progress := f.ProgressAt(s.now())
	return ForecastView{
		Gate:     gate,
		Forecast: &f,
		Progress: &progress,
		Critical: f.CriticalWarnings(),
		Stale:    res.Stale,
		Err:      res.Err,
	}
}

func lockedView(gate core.ForecastGate) ForecastView {
	return ForecastView{
		Gate:           gate,
		Locked:         true,
		UnlockProgress: gate.UnlockProgress(),
		UnlockMessage:  gate.UnlockMessage(),
	}
}
