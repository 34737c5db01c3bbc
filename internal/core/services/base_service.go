package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	"github.com/manan0901/Vibecoder-sub000/internal/middleware"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/metrics"
)

const (
	defaultGatewayTimeout    = 10 * time.Second
	defaultSideEffectTimeout = 15 * time.Second
)

// BaseService provides functionality shared by all payment services.
type BaseService struct {
	Metrics        *metrics.Metrics
	Notifier       external.Notifier
	Archiver       external.ReceiptArchiver
	Cache          external.StatusCache
	GatewayTimeout time.Duration

	now         func() time.Time
	sideEffects *SideEffectRunner
}

// ServiceOption is a functional option shared by every service constructor.
type ServiceOption func(*BaseService)

// WithMetrics records service outcomes on m.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *BaseService) { s.Metrics = m }
}

// WithNotifier sets the fire-and-forget notification channel.
func WithNotifier(n external.Notifier) ServiceOption {
	return func(s *BaseService) { s.Notifier = n }
}

// WithReceiptArchiver archives receipts of completed purchases.
func WithReceiptArchiver(a external.ReceiptArchiver) ServiceOption {
	return func(s *BaseService) { s.Archiver = a }
}

// WithStatusCache puts a read-through cache in front of status reads.
func WithStatusCache(c external.StatusCache) ServiceOption {
	return func(s *BaseService) { s.Cache = c }
}

// WithGatewayTimeout bounds every gateway call.
func WithGatewayTimeout(d time.Duration) ServiceOption {
	return func(s *BaseService) { s.GatewayTimeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BaseService) { s.now = now }
}

// WithSideEffectRunner shares one runner between services so shutdown can wait for all
// of them.
func WithSideEffectRunner(r *SideEffectRunner) ServiceOption {
	return func(s *BaseService) { s.sideEffects = r }
}

func newBaseService(options []ServiceOption) BaseService {
	b := BaseService{GatewayTimeout: defaultGatewayTimeout}
	for _, option := range options {
		option(&b)
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	if b.sideEffects == nil {
		b.sideEffects = NewSideEffectRunner(defaultSideEffectTimeout, false)
	}
	if b.GatewayTimeout <= 0 {
		b.GatewayTimeout = defaultGatewayTimeout
	}
	return b
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// gatewayCtx derives a context bounded by the gateway timeout.
func (s *BaseService) gatewayCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.GatewayTimeout)
}

// invalidate drops cached status entries. Failures only cost a stale read until the TTL.
func (s *BaseService) invalidate(ctx context.Context, transactionIDs ...string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, transactionIDs...); err != nil {
		s.LogError(ctx, err, "Failed to invalidate status cache", slog.Any("transaction_ids", transactionIDs))
		s.Metrics.SideEffectFailed("cache_invalidate")
	}
}

// notify sends a notification off the request path.
func (s *BaseService) notify(ctx context.Context, event string, payload map[string]any) {
	if s.Notifier == nil {
		return
	}
	s.sideEffects.Go(ctx, "notify", func(ctx context.Context) error {
		return s.Notifier.Notify(ctx, event, payload)
	})
}

// SideEffectRunner executes post-commit work on contexts detached from the request.
type SideEffectRunner struct {
	timeout     time.Duration
	synchronous bool
	metrics     *metrics.Metrics
	wg          sync.WaitGroup
}

// NewSideEffectRunner creates a runner. With synchronous set, Go blocks until the effect
// finishes, which keeps tests deterministic.
func NewSideEffectRunner(timeout time.Duration, synchronous bool) *SideEffectRunner {
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	return &SideEffectRunner{timeout: timeout, synchronous: synchronous}
}

// WithRunnerMetrics counts failed effects on m.
func (r *SideEffectRunner) WithRunnerMetrics(m *metrics.Metrics) *SideEffectRunner {
	r.metrics = m
	return r
}

// Go runs fn with a detached, time-bounded context. Errors are logged, never returned.
func (r *SideEffectRunner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	detached := context.WithoutCancel(ctx)

	run := func() {
		runCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()
		if err := fn(runCtx); err != nil {
			logger.Warn("Side effect failed", slog.String("effect", name), slog.String("error", err.Error()))
			r.metrics.SideEffectFailed(name)
		}
	}

	if r.synchronous {
		run()
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		run()
	}()
}

// Wait blocks until every in-flight effect finished or ctx is done.
func (r *SideEffectRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
