// Package stream adapts blocking readers (stdin, TCP connections, serial
// devices) to the non-blocking byte stream the terminal polls.
package stream

import (
	"errors"
	"io"
	"sync"
)

// DefaultCapacity is the number of unread bytes buffered before the
// background reader stops reading.
const DefaultCapacity = 4096

// ErrEmpty is returned by ReadByte when no byte is buffered yet.
var ErrEmpty = errors.New("stream: no data available")

// Pump reads from r on a background goroutine and buffers the bytes until
// the owner drains them with Available and ReadByte. Writes go straight to w.
type Pump struct {
	r io.Reader
	w io.Writer

	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	capacity int
	err      error
	closed   bool

	wmu   sync.Mutex
	ready chan struct{}
	done  chan struct{}
}

// New starts pumping r. capacity <= 0 selects DefaultCapacity.
func New(r io.Reader, w io.Writer, capacity int) *Pump {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pump{
		r:        r,
		w:        w,
		capacity: capacity,
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.readLoop()
	return p
}

func (p *Pump) readLoop() {
	defer close(p.done)

	chunk := make([]byte, 256)
	for {
		p.mu.Lock()
		for len(p.buf) >= p.capacity && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		room := p.capacity - len(p.buf)
		p.mu.Unlock()

		if room > len(chunk) {
			room = len(chunk)
		}
		n, err := p.r.Read(chunk[:room])

		p.mu.Lock()
		if n > 0 {
			p.buf = append(p.buf, chunk[:n]...)
		}
		if err != nil {
			p.err = err
		}
		p.mu.Unlock()

		if n > 0 || err != nil {
			p.signal()
		}
		if err != nil {
			return
		}
	}
}

func (p *Pump) signal() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// Available returns the number of buffered bytes. It never blocks on the reader.
func (p *Pump) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// ReadByte returns the next buffered byte. Once the buffer is drained it
// returns the reader's terminal error (io.EOF on a clean close), or
// ErrEmpty while the reader is still running.
func (p *Pump) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		return 0, ErrEmpty
	}
	b := p.buf[0]
	p.buf = p.buf[1:]
	if len(p.buf) == 0 {
		p.buf = nil
	}
	p.cond.Signal()
	return b, nil
}

// Write writes to the underlying writer. Concurrent writes are serialized.
func (p *Pump) Write(data []byte) (int, error) {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return p.w.Write(data)
}

// Ready is signaled after new bytes arrive or the reader stops.
func (p *Pump) Ready() <-chan struct{} {
	return p.ready
}

// Done is closed when the background reader exits.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// Err returns the error that stopped the reader, or nil while it runs.
func (p *Pump) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close stops the background reader at its next wakeup. A Read already
// blocked in the underlying reader is not interrupted.
func (p *Pump) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	return nil
}
