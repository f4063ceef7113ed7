package logger

import (
	"bytes"
	"sync"
)

const (
	defaultRingSize       = 10_000
	subscriberChannelSize = 64
)

// Ring keeps the most recent log lines in memory. It implements io.Writer so it
// can sit next to stdout behind an io.MultiWriter.
type Ring struct {
	mu    sync.RWMutex
	lines []string
	start int // index of the oldest line once the ring is full
	size  int
	total int64

	subs   map[int]chan string
	nextID int
}

// NewRing creates a ring holding at most size lines.
func NewRing(size int) *Ring {
	if size < 1 {
		size = defaultRingSize
	}
	return &Ring{
		lines: make([]string, 0, size),
		size:  size,
		subs:  make(map[int]chan string),
	}
}

// Write appends every newline-terminated line in p. A trailing fragment without
// a newline is kept as its own line.
func (r *Ring) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		var line []byte
		if i < 0 {
			line, p = p, nil
		} else {
			line, p = p[:i], p[i+1:]
		}
		if len(line) == 0 {
			continue
		}
		r.append(string(line))
	}
	return n, nil
}

func (r *Ring) append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.lines) < r.size {
		r.lines = append(r.lines, line)
	} else {
		r.lines[r.start] = line
		r.start = (r.start + 1) % r.size
	}
	r.total++

	for _, ch := range r.subs {
		select {
		case ch <- line:
		default:
			// slow subscriber; it misses this line
		}
	}
}

// Lines returns the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.start:]...)
	out = append(out, r.lines[:r.start]...)
	return out
}

// Len returns how many lines are currently buffered.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lines)
}

// Total returns how many lines were ever written, including evicted ones.
func (r *Ring) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Subscribe returns a channel receiving every line written after the call and a
// cancel func that closes it.
func (r *Ring) Subscribe() (<-chan string, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	ch := make(chan string, subscriberChannelSize)
	r.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
