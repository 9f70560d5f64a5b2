// Command server is ringdb's listener process. Its startup sequence —
// open config, open log, open persistence file, load existing state,
// start one event-loop worker per core, install a signal handler for
// graceful shutdown — mirrors the teacher's cmd/server/main.go shape,
// adapted from one-goroutine-per-connection workers to the completion-
// ring Scheduler in package sched.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/ringdb/ringdb/config"
	"github.com/ringdb/ringdb/database"
	"github.com/ringdb/ringdb/log"
	"github.com/ringdb/ringdb/persist"
	"github.com/ringdb/ringdb/sched"
)

func main() {
	cfgPath := flag.String("config", "ringdb.conf", "path to the configuration file")
	flag.Parse()

	logger := log.New()

	props, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("loading config %s: %v", *cfgPath, err)
	}

	if err := logger.Attach("log.log"); err != nil {
		logger.Fatal("opening log file: %v", err)
	}
	defer logger.Close()

	workers := props.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ringEntries := props.RingEntries
	if ringEntries <= 0 {
		ringEntries = sched.CeilPow2(2048 / workers)
	}

	pf, err := persist.Open(props.AppendFilename)
	if err != nil {
		logger.Fatal("opening persistence file %s: %v", props.AppendFilename, err)
	}

	mgr := database.NewManager()
	if snapshot, err := pf.LoadAll(); err != nil {
		logger.Fatal("reading persistence file: %v", err)
	} else if len(snapshot) > 0 {
		if err := mgr.LoadFromBytes(snapshot); err != nil {
			logger.Fatal("persistence file is corrupt: %v", err)
		}
	} else if err := pf.Write(mgr.Snapshot()); err != nil {
		// A fresh file gets an empty image first, so later AOF appends
		// follow the 16 database frames LoadFromBytes reads.
		logger.Fatal("writing initial snapshot: %v", err)
	}

	listenFd, err := listen(fmt.Sprintf("%s:%d", props.Bind, props.Port))
	if err != nil {
		logger.Fatal("binding %s:%d: %v", props.Bind, props.Port, err)
	}

	running := &atomic.Bool{}
	running.Store(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		running.Store(false)
	}()

	logger.Info("ringdb listening on %s:%d with %d workers", props.Bind, props.Port, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		isMain := i == 0
		var workerPersist *persist.File
		if isMain {
			workerPersist = pf
		}
		bufPool := sched.NewBufPool(context.Background(), 2048, ringEntries)
		s, err := sched.NewScheduler(i, isMain, listenFd, mgr, logger, workerPersist, bufPool, running)
		if err != nil {
			logger.Fatal("worker %d: creating scheduler: %v", i, err)
		}
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := s.Run(); err != nil {
				logger.Error("worker %d exited: %v", id, err)
			}
		}(i)
	}
	wg.Wait()
	logger.Info("ringdb stopped cleanly")
}

// listen opens a TCP listener and returns its raw, non-blocking file
// descriptor, grounded on manh119-Redis's pattern of going through
// net.Listen and then lifting the *net.TCPListener's fd for direct use
// with epoll — the accept/recv syscalls in package sched need a raw fd,
// not a net.Listener.
func listen(addr string) (int, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return -1, err
	}
	tl, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return -1, fmt.Errorf("unexpected listener type %T", ln)
	}
	f, err := tl.File()
	if err != nil {
		ln.Close()
		return -1, err
	}
	fd, err := syscall.Dup(int(f.Fd()))
	f.Close()
	ln.Close()
	if err != nil {
		return -1, err
	}
	// The dup'd fd keeps the socket alive independent of ln/f's lifetime;
	// sched owns it exclusively from here on.
	if err := syscall.SetNonblock(fd, true); err != nil {
		syscall.Close(fd)
		return -1, err
	}
	return fd, nil
}
