package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/pose"
)

// ErrClosed is returned by Call after the session stopped.
var ErrClosed = errors.New("session closed")

// Session serialises UI requests onto one goroutine.
//
// Thread-safety model:
//   - Submit(), Call(), Stop(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// INVARIANTS:
//   - intents are applied in Submit order
//   - the controller is only touched from the Run goroutine
//   - a failing intent is logged and never stops the loop
type Session struct {
	ctrl   *controller.Controller
	queue  *intentQueue
	clock  Clock
	logger *slog.Logger

	applied atomic.Int64
	failed  atomic.Int64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New returns a session driving ctrl. Node clicks become Select intents and
// selection gizmo drags become UpdatePose intents.
func New(ctrl *controller.Controller, opts ...Option) *Session {
	s := &Session{
		ctrl:   ctrl,
		queue:  newIntentQueue(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	ctrl.OnSelect(func(path string) { s.Submit(Select(path)) })
	ctrl.OnMove(func(path string, p pose.Pose) { s.Submit(UpdatePose(path, p)) })
	return s
}

// Submit queues in. It returns false once the session is stopped.
func (s *Session) Submit(in Intent) bool {
	in.Seq = s.clock.Next()
	if !s.queue.Enqueue(in) {
		s.logger.Debug("intent dropped, session closed", "op", in.Op, "path", in.Path)
		return false
	}
	return true
}

// Call queues in and waits until it has been applied.
func (s *Session) Call(ctx context.Context, in Intent) error {
	in.done = make(chan error, 1)
	if !s.Submit(in) {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-in.done:
		return err
	}
}

// Run applies queued intents until ctx is cancelled or Stop is called and
// the queue is drained.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session starting")

	for {
		in, ok := s.queue.TryDequeue()
		if ok {
			s.apply(ctx, in)
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("session stopping: context cancelled")
			s.queue.Close()
			s.drop()
			return ctx.Err()

		case <-s.queue.Wait():
			// A leftover token can wake an open, empty queue; only a
			// closed queue with nothing left ends the loop.
			if s.queue.Closed() && s.queue.Len() == 0 {
				s.logger.Info("session stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns after applying what was already queued.
func (s *Session) Stop() {
	s.queue.Close()
}

// Applied counts intents applied without error.
func (s *Session) Applied() int64 {
	return s.applied.Load()
}

// Failed counts intents that returned an error.
func (s *Session) Failed() int64 {
	return s.failed.Load()
}

func (s *Session) apply(ctx context.Context, in Intent) {
	var err error
	if in.apply == nil {
		err = errors.New("intent has no action")
	} else {
		err = in.apply(ctx, s.ctrl)
	}
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("intent failed", "seq", in.Seq, "op", in.Op, "path", in.Path, "error", err)
	} else {
		s.applied.Add(1)
		s.logger.Debug("intent applied", "seq", in.Seq, "op", in.Op, "path", in.Path)
	}
	if in.done != nil {
		in.done <- err
	}
}

// drop fails every intent still queued.
func (s *Session) drop() {
	for {
		in, ok := s.queue.TryDequeue()
		if !ok {
			return
		}
		if in.done != nil {
			in.done <- ErrClosed
		}
	}
}
