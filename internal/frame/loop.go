package frame

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/genricoloni/backdrop/internal/config"
	"go.uber.org/zap"
)

// ErrStopped is returned by Call once the loop has exited
var ErrStopped = errors.New("frame loop stopped")

type callback struct {
	id int
	fn func()
}

// Loop is the single goroutine everything visual runs on. Per-frame
// callbacks fire on every tick; Call runs one function in between.
type Loop struct {
	logger   *zap.Logger
	interval time.Duration

	mu        sync.Mutex
	callbacks []callback
	nextID    int

	calls  chan func()
	done   chan struct{}
	cancel context.CancelFunc
}

// NewLoop creates a loop ticking at the configured frame interval
func NewLoop(logger *zap.Logger, cfg *config.AppConfig) *Loop {
	return newLoop(logger, cfg.GetFrameInterval())
}

func newLoop(logger *zap.Logger, interval time.Duration) *Loop {
	return &Loop{
		logger:   logger,
		interval: interval,
		calls:    make(chan func()),
		done:     make(chan struct{}),
	}
}

// RegisterPerFrameCallback adds fn after every callback registered before it
func (l *Loop) RegisterPerFrameCallback(fn func()) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.callbacks = append(l.callbacks, callback{id: id, fn: fn})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, cb := range l.callbacks {
			if cb.id == id {
				l.callbacks = append(l.callbacks[:i], l.callbacks[i+1:]...)
				return
			}
		}
	}
}

// Call runs fn on the loop goroutine and waits for it to finish
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		l.guard("call", fn)
	}

	select {
	case l.calls <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks until ctx is cancelled. Blocks.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("Frame loop started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Frame loop stopped")
			return
		case fn := <-l.calls:
			fn()
		case <-ticker.C:
			l.Frame()
		}
	}
}

// Frame runs every per-frame callback once
func (l *Loop) Frame() {
	l.mu.Lock()
	fns := make([]func(), len(l.callbacks))
	for i, cb := range l.callbacks {
		fns[i] = cb.fn
	}
	l.mu.Unlock()

	for _, fn := range fns {
		l.guard("frame", fn)
	}
}

// guard keeps a panicking callback from killing the loop
func (l *Loop) guard(kind string, fn func()) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("Frame callback panic recovered",
				zap.String("kind", kind),
				zap.Any("error", err))
		}
	}()
	fn()
}

// Start launches Run in a goroutine.
// It returns immediately (non-blocking).
func (l *Loop) Start(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go l.Run(ctx)
	return nil
}

// Stop cancels the loop and waits for the current frame to finish
func (l *Loop) Stop(ctx context.Context) error {
	if l.cancel == nil {
		return nil
	}
	l.cancel()
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
