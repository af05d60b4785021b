package scramble

// signal is a broadcast rendezvous for waiters. Firing closes the current
// channel and installs a fresh one in the same step, so a waiter holding
// the old channel is woken exactly once and later waiters see the new one.
// Both wait and fire must be called with the board lock held.
type signal struct {
	ch chan struct{}
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

// wait returns the channel to block on outside the lock.
func (that *signal) wait() <-chan struct{} {
	return that.ch
}

// fire wakes every current waiter and re-arms.
func (that *signal) fire() {
	close(that.ch)
	that.ch = make(chan struct{})
}
