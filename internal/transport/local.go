package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ganeo/internal/gtag"
)

// Local stands in for the browser's gtag outside a page: it forwards every
// call to the next transport and answers client id lookups itself, after
// an optional delay, on a background goroutine.
type Local struct {
	next   gtag.Transport
	delay  time.Duration
	logger *zap.Logger

	ctx   context.Context
	group *errgroup.Group

	mu  sync.Mutex
	ids map[string]string
}

// LocalOption configures Local.
type LocalOption func(*Local)

// WithLookupDelay delays every lookup answer by d.
func WithLookupDelay(d time.Duration) LocalOption {
	return func(l *Local) { l.delay = d }
}

// WithClientID pins the client id reported for trackingID.
func WithClientID(trackingID, clientID string) LocalOption {
	return func(l *Local) { l.ids[trackingID] = clientID }
}

// WithLocalLogger sets the logger.
func WithLocalLogger(logger *zap.Logger) LocalOption {
	return func(l *Local) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocal returns a Local forwarding to next, which may be nil. Lookups
// still pending when ctx is cancelled are never answered.
func NewLocal(ctx context.Context, next gtag.Transport, opts ...LocalOption) *Local {
	group, gctx := errgroup.WithContext(ctx)
	l := &Local{
		next:   next,
		logger: zap.NewNop(),
		ctx:    gctx,
		group:  group,
		ids:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Gtag(command gtag.Command, args ...any) {
	if l.next != nil {
		l.next.Gtag(command, args...)
	}
	if command != gtag.CommandGet || len(args) < 3 || args[1] != gtag.ClientIDField {
		return
	}
	fn, ok := gtag.LookupOf(args)
	if !ok {
		return
	}
	trackingID, _ := args[0].(string)
	clientID := l.ClientID(trackingID)

	l.group.Go(func() error {
		if l.delay > 0 {
			timer := time.NewTimer(l.delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-l.ctx.Done():
				l.logger.Debug("lookup abandoned", zap.String("tracking_id", trackingID))
				return l.ctx.Err()
			}
		}
		l.logger.Debug("answering lookup", zap.String("tracking_id", trackingID))
		fn(clientID)
		return nil
	})
}

// ClientID returns the client id reported for trackingID, generating a
// random UUID the first time.
func (l *Local) ClientID(trackingID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.ids[trackingID]
	if !ok {
		id = uuid.NewString()
		l.ids[trackingID] = id
	}
	return id
}

// Wait blocks until every scheduled lookup answer has run.
func (l *Local) Wait() error {
	return l.group.Wait()
}
