// Package persist implements the file-level half of the hybrid
// snapshot/AOF durability engine: opening dump.aof, loading it at startup,
// and performing the truncate-then-write / append operations the
// Scheduler's one-second timer drives through database.Manager. Grounded
// on the teacher's aof/aof.go (open-flags, load-then-append handoff) and
// kavyan256-MiniRedis/aof.go (ticker-driven flush, replay-with-SELECT
// tracking, now folded into database.Manager.LoadFromBytes).
package persist

import (
	"os"
)

// DefaultFilename is the persistence file's name, spec.md §6.
const DefaultFilename = "dump.aof"

// File wraps the open persistence file descriptor. truncate-then-write and
// append are both expressed as plain os.File operations here; the main
// Scheduler's one-second tick calls them directly, not through sched.Ring.
type File struct {
	f *os.File
}

// Open opens (creating if absent) the persistence file for read-write
// access, matching the teacher's O_CREATE|O_RDWR AOF handle.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// LoadAll reads the entire persistence file for startup replay. A missing
// file is not an error — it is treated as an empty store (spec.md §6: "An
// empty snapshot is 16 consecutive u64 = 0", but a brand-new server hasn't
// even written that yet).
func (p *File) LoadAll() ([]byte, error) {
	if _, err := p.f.Seek(0, 0); err != nil {
		return nil, err
	}
	info, err := p.f.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, info.Size())
	if _, err := readFull(p.f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			if n == 0 {
				return total, err
			}
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Append writes data at the file's current end — used when the Manager's
// staged write buffer is an AOF flush rather than a snapshot.
func (p *File) Append(data []byte) error {
	if _, err := p.f.Seek(0, 2); err != nil {
		return err
	}
	_, err := p.f.Write(data)
	return err
}

// Truncate resets the file to empty and rewinds to the start — the first
// half of the Manager's "truncate then write" snapshot sequence.
func (p *File) Truncate() error {
	if err := p.f.Truncate(0); err != nil {
		return err
	}
	_, err := p.f.Seek(0, 0)
	return err
}

// Write writes data at the current offset (used immediately after
// Truncate to lay down a fresh snapshot image).
func (p *File) Write(data []byte) error {
	_, err := p.f.Write(data)
	return err
}

func (p *File) Sync() error { return p.f.Sync() }

func (p *File) Close() error { return p.f.Close() }

func (p *File) Fd() uintptr { return p.f.Fd() }
