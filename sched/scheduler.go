// Scheduler is the per-worker event loop (C7). Its shape — accept loop,
// per-connection receive/dispatch/send, a periodic tick, graceful signal-
// driven shutdown — is grounded on the teacher's tcp/server.go
// ListenAndServeWithSignal, adapted from one-goroutine-per-connection to a
// single epoll-driven loop per worker with cooperative Tasks instead of
// blocking goroutines, per spec.md §4.7.
package sched

import (
	"context"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ringdb/ringdb/database"
	"github.com/ringdb/ringdb/log"
	"github.com/ringdb/ringdb/persist"
	"github.com/ringdb/ringdb/protocol"
)

// Scheduler owns one Ring and runs on one locked OS thread. listenFd is
// shared by every worker (SO_REUSEPORT-free multi-accept: each worker
// registers its own epoll interest on the same descriptor). Only the main
// worker (id 0) owns the persistence file and performs the tick's
// truncate/write/append sequence, matching spec.md §4.4's single-writer
// durability rule.
type Scheduler struct {
	id       int
	isMain   bool
	ring     *Ring
	logger   *log.Logger
	manager  *database.Manager
	persist  *persist.File
	listenFd int
	bufPool  *BufPool

	clients map[int]*Client
	tasks   map[uint64]*Task
	nextUD  uint64

	running  *atomic.Bool
	fatalErr error
}

func NewScheduler(id int, isMain bool, listenFd int, mgr *database.Manager, logger *log.Logger, pf *persist.File, bufPool *BufPool, running *atomic.Bool) (*Scheduler, error) {
	ring, err := NewRing()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		id:       id,
		isMain:   isMain,
		ring:     ring,
		logger:   logger,
		manager:  mgr,
		persist:  pf,
		listenFd: listenFd,
		bufPool:  bufPool,
		clients:  make(map[int]*Client),
		tasks:    make(map[uint64]*Task),
		running:  running,
	}, nil
}

func (s *Scheduler) nextUserData() uint64 {
	s.nextUD++
	return s.nextUD
}

// submit registers sub and binds resume as its Task; inline completions
// (send/write/truncate/close) are delivered immediately instead of waiting
// for the next Wait().
func (s *Scheduler) submit(sub Submission, resume func(Completion) *Submission) {
	s.tasks[sub.UserData] = &Task{UserData: sub.UserData, Resume: resume}
	comp, done := s.ring.Submit(sub)
	if done {
		s.deliver(comp)
	}
}

// deliver resumes the Task owning c.UserData. NOTIF completions are
// dropped without resuming anything (spec.md §4.5).
func (s *Scheduler) deliver(c Completion) {
	if c.Flags&FlagNotif != 0 {
		return
	}
	t, ok := s.tasks[c.UserData]
	if !ok {
		return
	}
	delete(s.tasks, c.UserData)
	next := t.Resume(c)
	if next == nil {
		return
	}
	s.submit(*next, t.Resume)
}

// pinBestEffort locks the calling goroutine to its OS thread. True CPU
// affinity (spec.md §4.7's "pin each worker to a distinct core") needs
// unix.SchedSetaffinity, which nothing else in this module pulls in; this
// is logged once as a known limitation rather than treated as fatal.
func (s *Scheduler) pinBestEffort() {
	runtime.LockOSThread()
	s.logger.Info("worker %d: CPU pinning unavailable without golang.org/x/sys/unix; running unpinned on a locked OS thread", s.id)
}

// Run drives the event loop until running flips false, then drains
// remaining connections and returns.
func (s *Scheduler) Run() error {
	s.pinBestEffort()
	defer runtime.UnlockOSThread()

	s.submitAccept()

	lastTick := time.Now()
	for s.running.Load() {
		remaining := time.Second - time.Since(lastTick)
		timeoutMs := int(remaining / time.Millisecond)
		if timeoutMs < 0 {
			timeoutMs = 0
		}
		if s.logger.HasPending() {
			s.logger.Take()
		}
		completions, err := s.ring.Wait(timeoutMs)
		if err != nil {
			s.logger.Error("worker %d: ring wait: %v", s.id, err)
			return err
		}
		for _, c := range completions {
			s.deliver(c)
		}
		if time.Since(lastTick) >= time.Second {
			lastTick = time.Now()
			s.onTick()
		}
	}
	s.shutdown()
	return s.fatalErr
}

// submitAccept keeps one long-lived accept Task registered on listenFd: it
// drains every pending connection on each readiness notification, then
// re-arms itself. A terminal Accept error (anything but EAGAIN/EWOULDBLOCK
// — e.g. EMFILE/ENFILE under fd exhaustion, or EBADF if listenFd is ever
// invalidated) is a "stop", per spec.md §4.7: it is surfaced through
// fatalErr and running is cleared instead of re-arming the task, so Run
// exits and reports the failure rather than busy-looping on a fd epoll
// keeps reporting ready.
func (s *Scheduler) submitAccept() {
	ud := s.nextUserData()
	var resume func(Completion) *Submission
	resume = func(c Completion) *Submission {
		for {
			nfd, _, err := Accept(s.listenFd)
			if err != nil {
				if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
					break
				}
				s.logger.Error("worker %d: accept: %v", s.id, err)
				s.fatalErr = err
				s.running.Store(false)
				return nil
			}
			client := NewClient(nfd)
			s.clients[nfd] = client
			s.submitReceive(client)
		}
		return &Submission{Op: OpAccept, Fd: s.listenFd, UserData: ud}
	}
	s.submit(Submission{Op: OpAccept, Fd: s.listenFd, UserData: ud}, resume)
}

// submitReceive issues a recv Task for c. On readiness it drains the
// socket until EAGAIN, hands any accumulated bytes to the database.Manager
// as one statement, submits the reply send, and re-arms the recv.
func (s *Scheduler) submitReceive(c *Client) {
	ud := s.nextUserData()
	var resume func(Completion) *Submission
	resume = func(comp Completion) *Submission {
		for {
			buf, err := s.bufPool.Get(context.Background())
			if err != nil {
				s.logger.Error("worker %d: bufpool: %v", s.id, err)
				break
			}
			n, rerr := Recv(c.Fd, buf)
			if rerr == nil && n > 0 {
				c.inbox = append(c.inbox, buf[:n]...)
			}
			s.bufPool.Put(context.Background(), buf)
			if rerr != nil {
				if rerr == syscall.EAGAIN || rerr == syscall.EWOULDBLOCK {
					break
				}
				s.logger.Warn("worker %d: recv fd=%d: %v", s.id, c.Fd, rerr)
				s.submitClose(c)
				return nil
			}
			if n == 0 {
				s.submitClose(c)
				return nil
			}
		}
		if len(c.inbox) > 0 {
			answer := protocol.AnswerFromBytes(c.inbox)
			c.inbox = nil
			reply := s.manager.Query(&c.Session, answer)
			s.submitSend(c, reply.ToBytes())
		}
		return &Submission{Op: OpRecv, Fd: c.Fd, UserData: ud}
	}
	s.submit(Submission{Op: OpRecv, Fd: c.Fd, UserData: ud}, resume)
}

// submitSend writes data back to c inline and drops the one-shot Task
// immediately — send has nothing further to wait on.
func (s *Scheduler) submitSend(c *Client, data []byte) {
	ud := s.nextUserData()
	s.submit(Submission{Op: OpSend, Fd: c.Fd, UserData: ud, Buf: data}, func(Completion) *Submission {
		return nil
	})
}

// submitClose closes c's socket, removes it from the client table, and
// unregisters its epoll interest.
func (s *Scheduler) submitClose(c *Client) {
	ud := s.nextUserData()
	s.submit(Submission{Op: OpClose, Fd: c.Fd, UserData: ud}, func(Completion) *Submission {
		delete(s.clients, c.Fd)
		return nil
	})
}

// onTick runs the one-second durability check (spec.md §4.4): only the
// main worker ever performs it, since only one worker may own the
// persistence file descriptor.
func (s *Scheduler) onTick() {
	if !s.isMain || s.persist == nil {
		return
	}
	if !s.manager.IsWritable() {
		return
	}
	buf := s.manager.WriteBuffer()
	var err error
	if s.manager.IsCanTruncate() {
		if err = s.persist.Truncate(); err == nil {
			err = s.persist.Write(buf)
		}
	} else {
		err = s.persist.Append(buf)
	}
	if err != nil {
		s.logger.Error("worker %d: persistence write: %v", s.id, err)
		return
	}
	s.manager.ClearWriteBuffer()
}

func (s *Scheduler) shutdown() {
	for fd := range s.clients {
		syscall.Close(fd)
	}
	s.clients = nil
	if s.isMain {
		syscall.Close(s.listenFd)
		if s.persist != nil {
			s.persist.Sync()
			s.persist.Close()
		}
	}
	s.ring.Close()
}
