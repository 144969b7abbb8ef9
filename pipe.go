package wasmshim

import (
	"bytes"
	"sync"
)

// Pipe is a line-buffering writer that forwards each completed line to a Logger.
type Pipe struct {
	ch  Channel
	log Logger

	mu  sync.Mutex
	buf []byte
}

func newPipe(ch Channel, log Logger) *Pipe {
	return &Pipe{ch: ch, log: log}
}

// Write appends chunk to the pending line and emits every line it completes.
// All of chunk is always accepted. If the logger fails, emission stops,
// the remaining lines stay buffered, and the logger's error is returned.
func (p *Pipe) Write(chunk []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf = append(p.buf, chunk...)
	var (
		start int
		err   error
	)
	for {
		i := bytes.IndexByte(p.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := string(p.buf[start : start+i])
		start += i + 1
		if err = p.log.WriteLine(p.ch, line); err != nil {
			break
		}
	}
	n := copy(p.buf, p.buf[start:])
	p.buf = p.buf[:n]
	return len(chunk), err
}

// Reset discards the pending partial line.
func (p *Pipe) Reset() {
	p.mu.Lock()
	p.buf = p.buf[:0]
	p.mu.Unlock()
}

// Buffered returns the pending partial line.
func (p *Pipe) Buffered() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.buf)
}

// Channel reports which stream this pipe carries.
func (p *Pipe) Channel() Channel {
	return p.ch
}
