package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/api"
	"finboard/internal/cache"
	"finboard/internal/config"
	"finboard/internal/log"
	"finboard/internal/query"
	"finboard/internal/services"
	"finboard/internal/sheets"
	"finboard/internal/storage"
)

// cleanupInterval is how often the memory cache sweeps expired snapshots.
const cleanupInterval = 5 * time.Minute

// Stack is the assembled client: API, caches, session and entity services.
type Stack struct {
	Logger   *log.Logger
	API      *api.Client
	Query    *query.Client
	Sessions storage.SessionStore
	// Changes is nil when AMQP is not configured.
	Changes      *amqp.Client
	CacheManager *cache.Manager

	Auth         *services.AuthService
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Dashboard    *services.DashboardService
	Forecast     *services.ForecastService

	opts     []services.Option
	cleanups []CleanupFunc
}

// NewStack builds every backend named in cfg and wires the services on top.
// A failing AMQP connection is logged and the stack continues without it.
func NewStack(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Stack, error) {
	return newStack(ctx, cfg, logger, NewFactory(logger))
}

func newStack(ctx context.Context, cfg *config.Config, logger *log.Logger, factory Factory) (*Stack, error) {
	if logger == nil {
		logger = log.Discard()
	}
	bcfg, err := FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	s := &Stack{Logger: logger, CacheManager: cache.NewManager(logger)}

	sessions, err := factory.CreateSessions(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	s.Sessions = sessions.Store
	s.addCleanup(sessions.Cleanup)

	snapshots, err := factory.CreateCache(ctx, bcfg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.addCleanup(snapshots.Cleanup)
	if snapshots.Cleaner != nil {
		s.CacheManager.Register(snapshots.Cleaner)
		s.CacheManager.StartCleanup(cleanupInterval)
	}

	s.API = api.NewClient(cfg.APIBaseURL, cfg.APITimeout,
		api.WithLogger(logger),
		api.WithTokenSource(api.TokenFunc(func(ctx context.Context) (string, error) {
			return storage.TokenOf(ctx, s.Sessions)
		})))
	s.Query = query.NewClient(snapshots.Store, query.WithLogger(logger))

	s.opts = []services.Option{services.WithLogger(logger)}
	if cfg.AMQPEnabled() {
		changes, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			s.Changes = changes
			s.addCleanup(changes.Close)
			s.opts = append(s.opts, services.WithNotifier(changes))
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	s.Auth = services.NewAuthService(s.API, s.Query, s.Sessions, s.opts...)
	s.Transactions = services.NewTransactionService(s.API, s.Query, s.opts...)
	s.Categories = services.NewCategoryService(s.API, s.Query, s.opts...)
	s.Budgets = services.NewBudgetService(s.API, s.Query, s.Transactions, s.opts...)
	s.Dashboard = services.NewDashboardService(s.API, s.Query, s.Transactions, s.Categories, s.Budgets, s.opts...)
	s.Forecast = services.NewForecastService(s.API, s.Query, s.Auth, s.Transactions, s.opts...)
	return s, nil
}

// Exporter returns an export service writing to w.
func (s *Stack) Exporter(w sheets.ReportWriter) *services.ExportService {
	return services.NewExportService(s.Budgets, s.Transactions, s.Categories, w, s.opts...)
}

// ListenForChanges invalidates local snapshots whenever another process
// reports a write. It blocks until ctx is done; without AMQP it returns nil
// at once.
func (s *Stack) ListenForChanges(ctx context.Context) error {
	if s.Changes == nil {
		return nil
	}
	return s.Changes.ConsumeChanges(ctx, func(ctx context.Context, e *amqp.ChangeEvent) error {
		services.ApplyRemoteChange(ctx, s.Query, e.Entity)
		return nil
	})
}

func (s *Stack) addCleanup(fn CleanupFunc) {
	if fn != nil {
		s.cleanups = append(s.cleanups, fn)
	}
}

// Close stops background work and releases every backend, newest first.
func (s *Stack) Close() error {
	s.CacheManager.Stop()
	if s.Query != nil {
		s.Query.Close()
	}
	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.cleanups = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close backends: %w", err)
	}
	return nil
}
