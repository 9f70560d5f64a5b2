//go:build linux

// Ring wraps epoll the way manh119-Redis's miniredis.go drives it directly
// through the syscall package: EpollCreate1, EpollCtl, EpollWait, with
// sockets switched non-blocking via SetNonblock. ringdb keeps that raw
// syscall style rather than reaching for golang.org/x/sys/unix, since the
// corpus's own epoll user does the same.
package sched

import "syscall"

// Ring is the per-worker completion source: accept/recv register epoll
// interest and report readiness through Wait; send/write/truncate/close
// have no useful wait condition and execute inline, synthesizing an
// immediate Completion (spec.md §4.5's "completion ring" collapsed onto
// what the Go runtime and the kernel actually give us for free).
type Ring struct {
	epfd     int
	interest map[int]uint64 // fd -> UserData of the pending accept/recv submission
}

func NewRing() (*Ring, error) {
	epfd, err := syscall.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &Ring{epfd: epfd, interest: make(map[int]uint64)}, nil
}

// Submit registers or performs sub. The bool return reports whether the
// returned Completion is already final (true for inline ops) or a
// placeholder pending delivery through Wait (false for accept/recv).
func (r *Ring) Submit(sub Submission) (Completion, bool) {
	switch sub.Op {
	case OpAccept, OpRecv:
		ev := syscall.EpollEvent{Events: syscall.EPOLLIN, Fd: int32(sub.Fd)}
		err := syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_ADD, sub.Fd, &ev)
		if err == syscall.EEXIST {
			err = syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_MOD, sub.Fd, &ev)
		}
		if err != nil {
			return Completion{UserData: sub.UserData, Result: -1, Flags: FlagErr}, true
		}
		r.interest[sub.Fd] = sub.UserData
		return Completion{}, false
	case OpSend, OpWrite:
		n, err := syscall.Write(sub.Fd, sub.Buf)
		return Completion{UserData: sub.UserData, Result: int32(n), Flags: errFlag(err)}, true
	case OpTruncate:
		err := syscall.Ftruncate(sub.Fd, 0)
		return Completion{UserData: sub.UserData, Result: okOrErr(err), Flags: errFlag(err)}, true
	case OpClose:
		err := syscall.Close(sub.Fd)
		r.Unregister(sub.Fd)
		return Completion{UserData: sub.UserData, Result: okOrErr(err), Flags: errFlag(err)}, true
	default:
		return Completion{UserData: sub.UserData, Result: -1, Flags: FlagErr}, true
	}
}

// Wait blocks for up to timeoutMs and returns one Completion per fd that
// became ready, looked up against the interest registered by Submit.
func (r *Ring) Wait(timeoutMs int) ([]Completion, error) {
	events := make([]syscall.EpollEvent, 64)
	n, err := syscall.EpollWait(r.epfd, events, timeoutMs)
	if err != nil {
		if err == syscall.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Completion, 0, n)
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		ud, ok := r.interest[fd]
		if !ok {
			continue
		}
		c := Completion{UserData: ud}
		if events[i].Events&(syscall.EPOLLERR|syscall.EPOLLHUP) != 0 {
			c.Result = -1
			c.Flags |= FlagErr
		}
		out = append(out, c)
	}
	return out, nil
}

// Unregister drops fd from the epoll set and the interest table — used
// once a connection's Close task has run.
func (r *Ring) Unregister(fd int) {
	syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_DEL, fd, nil)
	delete(r.interest, fd)
}

func (r *Ring) Close() error {
	return syscall.Close(r.epfd)
}

// Accept accepts one connection off fd and switches it non-blocking, as
// every connection socket in an epoll-driven loop must be.
func Accept(fd int) (int, syscall.Sockaddr, error) {
	nfd, sa, err := syscall.Accept(fd)
	if err != nil {
		return -1, nil, err
	}
	if err := syscall.SetNonblock(nfd, true); err != nil {
		syscall.Close(nfd)
		return -1, nil, err
	}
	return nfd, sa, nil
}

// Recv is a thin syscall.Read alias kept for symmetry with Accept/Submit's
// naming of the four wire operations.
func Recv(fd int, buf []byte) (int, error) {
	return syscall.Read(fd, buf)
}

func errFlag(err error) uint32 {
	if err != nil {
		return FlagErr
	}
	return 0
}

func okOrErr(err error) int32 {
	if err != nil {
		return -1
	}
	return 0
}
