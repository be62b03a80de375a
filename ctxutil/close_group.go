// Copyright (c) 2025 StratX21

package ctxutil

import (
	"context"
	"os"
	"sync"
	"time"
)

// CloseGroup manages a group of background goroutines that share a common
// context. Close cancels the context and waits for all goroutines to return.
// The zero value is ready for use.
type CloseGroup struct {
	closeCtx  context.Context
	causeFunc context.CancelCauseFunc

	wg sync.WaitGroup

	once sync.Once
}

func (cg *CloseGroup) init() {
	cg.closeCtx, cg.causeFunc = context.WithCancelCause(context.Background())
}

func (cg *CloseGroup) Close() {
	cg.once.Do(cg.init)
	cg.causeFunc(os.ErrClosed)
	cg.wg.Wait()
}

func (cg *CloseGroup) Context() context.Context {
	cg.once.Do(cg.init)
	return cg.closeCtx
}

func (cg *CloseGroup) Go(f func(ctx context.Context)) {
	cg.once.Do(cg.init)

	cg.wg.Add(1)
	go func() {
		f(cg.closeCtx)
		cg.wg.Done()
	}()
}

// AfterDurationFunc runs the input function after the given duration unless
// the group is closed first.
func (cg *CloseGroup) AfterDurationFunc(d time.Duration, f func(ctx context.Context)) {
	cg.once.Do(cg.init)

	cg.wg.Add(1)
	go func() {
		defer cg.wg.Done()
		select {
		case <-cg.closeCtx.Done():
		case <-time.After(d):
			f(cg.closeCtx)
		}
	}()
}
