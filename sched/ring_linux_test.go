//go:build linux

package sched

import (
	"syscall"
	"testing"
)

func TestRingRecvReadiness(t *testing.T) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer syscall.Close(fds[0])
	defer syscall.Close(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("setnonblock: %v", err)
	}

	r, err := NewRing()
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer r.Close()

	comp, done := r.Submit(Submission{Op: OpRecv, Fd: fds[0], UserData: 42})
	if done {
		t.Fatalf("expected pending recv submission, got immediate %+v", comp)
	}

	if _, err := syscall.Write(fds[1], []byte("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}

	completions, err := r.Wait(1000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(completions) != 1 || completions[0].UserData != 42 {
		t.Fatalf("expected one completion for UserData=42, got %+v", completions)
	}

	buf := make([]byte, 16)
	n, err := Recv(fds[0], buf)
	if err != nil || string(buf[:n]) != "hi" {
		t.Fatalf("Recv: n=%d err=%v", n, err)
	}
}

func TestRingSendIsInline(t *testing.T) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer syscall.Close(fds[0])
	defer syscall.Close(fds[1])

	r, err := NewRing()
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer r.Close()

	comp, done := r.Submit(Submission{Op: OpSend, Fd: fds[0], UserData: 7, Buf: []byte("pong")})
	if !done {
		t.Fatal("expected send to complete inline")
	}
	if comp.Result != 4 || comp.Flags&FlagErr != 0 {
		t.Fatalf("unexpected completion: %+v", comp)
	}

	buf := make([]byte, 16)
	n, err := syscall.Read(fds[1], buf)
	if err != nil || string(buf[:n]) != "pong" {
		t.Fatalf("peer read: n=%d err=%v", n, err)
	}
}

func TestRingUnregisterDropsInterest(t *testing.T) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer syscall.Close(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("setnonblock: %v", err)
	}

	r, err := NewRing()
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer r.Close()

	r.Submit(Submission{Op: OpRecv, Fd: fds[0], UserData: 1})
	r.Unregister(fds[0])
	syscall.Close(fds[0])

	if _, ok := r.interest[fds[0]]; ok {
		t.Fatal("expected interest entry to be removed")
	}
}
