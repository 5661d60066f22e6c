package services

import (
	"time"

	"finboard/internal/log"
	"finboard/internal/query"
)

// base holds what every entity service shares.
type base struct {
	api      FinanceAPI
	q        *query.Client
	notifier ChangeNotifier
	logger   *log.Logger
	audit    *log.StructuredLogger
	now      func() time.Time
}

type Option func(*base)

// WithNotifier publishes successful mutations to other clients.
func WithNotifier(n ChangeNotifier) Option {
	return func(b *base) { b.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(b *base) { b.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func newBase(api FinanceAPI, q *query.Client, component string, opts []Option) base {
	b := base{
		api:    api,
		q:      q,
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.WithComponent(component)
	b.audit = log.NewStructuredLogger(b.logger)
	return b
}
