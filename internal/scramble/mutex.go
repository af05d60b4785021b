package scramble

import (
	"context"
	"sync"
)

// ExclusiveLock serializes board operations in strict arrival order.
// Unlike sync.Mutex it takes a context, so a blocked caller can give up,
// and it hands the lock to the longest-waiting caller instead of racing.
type ExclusiveLock struct {
	mu sync.Mutex

	// locked stays true across a handoff: Unlock with waiters present
	// passes ownership to the head of the queue directly.
	locked  bool
	waiters []chan struct{}
}

func NewExclusiveLock() *ExclusiveLock {
	return &ExclusiveLock{}
}

// Lock blocks until the caller owns the lock or ctx is done.
func (that *ExclusiveLock) Lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	that.mu.Lock()
	if !that.locked {
		that.locked = true
		that.mu.Unlock()

		return nil
	}

	grant := make(chan struct{})
	that.waiters = append(that.waiters, grant)
	that.mu.Unlock()

	select {
	case <-grant:
		return nil
	case <-ctx.Done():
		that.mu.Lock()
		for i, waiter := range that.waiters {
			if waiter == grant {
				that.waiters = append(that.waiters[:i], that.waiters[i+1:]...)
				that.mu.Unlock()

				return ctx.Err()
			}
		}
		that.mu.Unlock()

		// The grant raced with the cancellation, so the lock is ours;
		// pass it on before reporting the cancellation.
		that.Unlock()

		return ctx.Err()
	}
}

// Unlock releases the lock, waking the longest-waiting caller if any.
func (that *ExclusiveLock) Unlock() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.locked {
		panic("scramble: unlock of an unlocked board")
	}

	if len(that.waiters) == 0 {
		that.locked = false
		return
	}

	grant := that.waiters[0]
	that.waiters = that.waiters[1:]
	close(grant)
}
