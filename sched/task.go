// Package sched implements the completion-based I/O scheduler (C5-C7): a
// per-worker event loop driven by a syscall-level epoll ring, cooperative
// Tasks resumable by completion events, and cross-worker coordination
// through a shared *database.Manager.
package sched

// OpType names the kind of operation behind one Submission.
type OpType int

const (
	OpAccept OpType = iota
	OpRecv
	OpSend
	OpWrite
	OpTruncate
	OpClose
)

// Submission is one registered interest or inline operation handed to the
// Ring.
type Submission struct {
	Op       OpType
	Fd       int
	UserData uint64
	Buf      []byte
}

// Completion is the result delivered back to the Task that owns UserData.
type Completion struct {
	UserData uint64
	Result   int32
	Flags    uint32
}

const (
	// FlagNotif marks a completion that must not resume its task — the
	// Scheduler drops it silently (spec.md §4.5).
	FlagNotif uint32 = 1 << 0
	// FlagMore marks a multi-shot completion with further completions to
	// follow on the same submission.
	FlagMore uint32 = 1 << 1
	// FlagErr marks a completion carrying an I/O error in Result.
	FlagErr uint32 = 1 << 2
)

// Task is a single-frame suspendable unit bound to exactly one pending
// Submission at a time, identified by UserData. Resume is invoked with the
// Completion matching that Submission and returns the next Submission to
// register, or nil if the task has nothing further pending and should be
// dropped — this closure-based continuation is ringdb's Go-idiomatic
// stand-in for the spec's coroutine frame (SPEC_FULL.md §4.5).
type Task struct {
	UserData uint64
	Resume   func(Completion) *Submission
}
