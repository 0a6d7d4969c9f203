package executor

import (
	"io"
	"sync"
)

// Executor is inspired by Java Executor that abstracts submitting a task and executing it.
type Executor interface {
	// Execute executes the given command.
	Execute(func())
}

// ExecuteCloser adds io.Closer to Executor.
//
// Close blocks until all submitted commands have finished.
type ExecuteCloser interface {
	Executor
	io.Closer
}

// NewCallerRunOnRejectExecutor returns a new Executor with n worker goroutines that will execute the command on same
// goroutine as caller if all workers are busy and the queue is full.
//
// At most n+1 commands run at the same time: n on workers plus one on the caller. If n is 0, every command runs on
// the caller's goroutine.
func NewCallerRunOnRejectExecutor(n int) ExecuteCloser {
	if n <= 0 {
		return &callerRunExecutor{}
	}

	ex := &callerRunOnRejectExecutor{inputs: make(chan func(), n)}
	ex.wg.Add(n)
	for range n {
		go func() {
			defer ex.wg.Done()

			for f := range ex.inputs {
				f()
			}
		}()
	}

	return ex
}

type callerRunOnRejectExecutor struct {
	inputs chan func()
	wg     sync.WaitGroup

	// mu guards closed.
	mu     sync.Mutex
	closed bool
}

func (ex *callerRunOnRejectExecutor) Execute(f func()) {
	// the send never blocks so it is safe to hold mu during it.
	ex.mu.Lock()
	queued := false
	if !ex.closed {
		select {
		case ex.inputs <- f:
			queued = true
		default:
		}
	}
	ex.mu.Unlock()

	if !queued {
		f()
	}
}

func (ex *callerRunOnRejectExecutor) Close() error {
	ex.mu.Lock()
	if !ex.closed {
		ex.closed = true
		close(ex.inputs)
	}
	ex.mu.Unlock()

	ex.wg.Wait()
	return nil
}

type callerRunExecutor struct {
}

func (ex callerRunExecutor) Execute(f func()) {
	f()
}

func (ex callerRunExecutor) Close() error {
	return nil
}
