// Package background joins goroutines which belong to the same lifetime.
package background

import (
	"context"
	"sync"
	"time"
)

// Scope - abstract concurrency scope: a cancelable context plus the goroutines bound to it.
type Scope struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	// mu orders Go against Cancel, so no goroutine joins the scope after it was canceled
	mu    sync.Mutex
	scope sync.WaitGroup
}

// NewScope - concurrency scope builder.
// Returned cancel func cancels scope context and waits all scope members are done.
func NewScope(parent context.Context) (scope *Scope, cancel func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancelFunc := context.WithCancel(parent)
	s := &Scope{
		ctx:       ctx,
		ctxCancel: cancelFunc,
	}
	return s,
		func() {
			s.Cancel()
			s.scope.Wait()
		}
}

// Context - return background context
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go - starts f in new goroutine as a member of scope.
// Returns false and does not start f if scope is already canceled.
func (s *Scope) Go(f func(ctx context.Context)) bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	s.scope.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.scope.Done()
		f(s.ctx)
	}()
	return true
}

// Cancel - cancels scope context without waiting for members.
func (s *Scope) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxCancel()
}

// Wait - waits all scope members are done, but no longer than timeout.
// Returns false if timeout has expired first.
func (s *Scope) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.scope.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
