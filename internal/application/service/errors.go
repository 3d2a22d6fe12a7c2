package service

// CycleError is anything that escaped one scheduler cycle.
type CycleError struct {
	Err error
}

func (e *CycleError) Error() string { return "refresh cycle: " + e.Err.Error() }

func (e *CycleError) Unwrap() error { return e.Err }
