package sched

import "github.com/ringdb/ringdb/database"

// Client is one accepted connection: its fd, the Session (C4's per-session
// Context: current database index, transaction state, queued answers),
// and an accumulation buffer for partial reads until a full statement has
// arrived.
type Client struct {
	Fd      int
	Session database.Session
	inbox   []byte
}

func NewClient(fd int) *Client {
	return &Client{Fd: fd}
}
