//go:build linux

package sched

import (
	"context"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/ringdb/ringdb/database"
	"github.com/ringdb/ringdb/log"
)

// TestReceiveDispatchesThroughManager exercises submitReceive end to end
// over a real non-blocking socketpair: a statement written on one end is
// picked up by the recv Task, dispatched through database.Manager, and the
// serialized Reply is written back — without a listening socket or the
// Run() loop, just the per-connection Task chain.
func TestReceiveDispatchesThroughManager(t *testing.T) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer syscall.Close(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("setnonblock: %v", err)
	}

	running := &atomic.Bool{}
	running.Store(true)
	s, err := NewScheduler(0, true, -1, database.NewManager(), log.New(), nil, NewBufPool(context.Background(), 2048, 4), running)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer s.ring.Close()

	client := NewClient(fds[0])
	s.clients[fds[0]] = client
	s.submitReceive(client)

	if _, err := syscall.Write(fds[1], []byte("SET foo bar")); err != nil {
		t.Fatalf("write: %v", err)
	}

	completions, err := s.ring.Wait(1000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	for _, c := range completions {
		s.deliver(c)
	}

	buf := make([]byte, 256)
	n, err := syscall.Read(fds[1], buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if n == 0 {
		t.Fatal("expected a reply on the wire")
	}
}

// TestSubmitAcceptStopsOnTerminalError exercises the "surface the error and
// stop" branch of the accept task (spec.md §4.7): a terminal Accept error
// (here, EBADF from an invalid listenFd) must clear running and record
// fatalErr instead of re-arming the accept task forever.
func TestSubmitAcceptStopsOnTerminalError(t *testing.T) {
	running := &atomic.Bool{}
	running.Store(true)
	s, err := NewScheduler(0, true, -1, database.NewManager(), log.New(), nil, NewBufPool(context.Background(), 2048, 4), running)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer s.ring.Close()

	s.submitAccept()

	if running.Load() {
		t.Fatal("expected running to be cleared after a terminal accept error")
	}
	if s.fatalErr == nil {
		t.Fatal("expected fatalErr to be recorded after a terminal accept error")
	}
	if len(s.tasks) != 0 {
		t.Fatalf("expected the accept task not to be re-armed, got %d pending tasks", len(s.tasks))
	}
}
