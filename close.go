package sightline

// Close releases the worker pool and the index memory reservation.
// Close is idempotent; every other method returns ErrClosed afterwards.
func (e *Engine) Close() error {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	if err := e.driver.Close(); err != nil {
		firstErr = err
	}
	if err := e.idx.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
