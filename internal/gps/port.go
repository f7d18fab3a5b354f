package gps

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// Port reads the receiver's serial line on a background goroutine and queues
// the chunks for Pending. Decoding stays on the control loop. A read error
// closes the device and reopens it after a pause until that succeeds.
type Port struct {
	open    func() (serial.Port, error)
	backoff time.Duration

	mu   sync.Mutex
	port serial.Port // nil while reopening

	chunks  chan []byte
	dropped atomic.Uint64
	reopens atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// queueDepth is how many read chunks may wait for the control loop.
const queueDepth = 256

// DefaultReopenBackoff is the pause between attempts to reopen a failed port.
const DefaultReopenBackoff = 2 * time.Second

// OpenPort opens the serial device at the given baud rate, 8N1.
func OpenPort(device string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	open := func() (serial.Port, error) {
		sp, err := serial.Open(device, mode)
		if err != nil {
			return nil, fmt.Errorf("open serial %s: %w", device, err)
		}
		if err := sp.SetReadTimeout(500 * time.Millisecond); err != nil {
			sp.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
		return sp, nil
	}
	return newPort(open, DefaultReopenBackoff)
}

func newPort(open func() (serial.Port, error), backoff time.Duration) (*Port, error) {
	sp, err := open()
	if err != nil {
		return nil, err
	}

	p := &Port{
		open:    open,
		backoff: backoff,
		port:    sp,
		chunks:  make(chan []byte, queueDepth),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.readLoop(sp)
	return p, nil
}

func (p *Port) readLoop(sp serial.Port) {
	defer close(p.done)
	buf := make([]byte, 256)
	for {
		n, err := sp.Read(buf)
		if err != nil {
			if p.stopping() {
				return
			}
			slog.Error("gps: serial read failed, reopening", "error", err, "backoff", p.backoff)
			p.mu.Lock()
			sp.Close()
			p.port = nil
			p.mu.Unlock()

			if sp = p.reopen(); sp == nil {
				return
			}
			continue
		}
		if n == 0 {
			// read timeout
			if p.stopping() {
				return
			}
			continue
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case p.chunks <- chunk:
		default:
			if p.dropped.Add(1) == 1 {
				slog.Warn("gps: receive queue full, dropping data", "depth", queueDepth)
			}
		}
	}
}

// reopen retries the device until it opens or the port is closed, in which
// case it returns nil.
func (p *Port) reopen() serial.Port {
	var lastErr string
	for {
		select {
		case <-p.stop:
			return nil
		case <-time.After(p.backoff):
		}

		sp, err := p.open()
		if err != nil {
			if msg := err.Error(); msg != lastErr {
				slog.Warn("gps: reopen failed, retrying", "error", err)
				lastErr = msg
			}
			continue
		}

		p.mu.Lock()
		if p.stopping() {
			p.mu.Unlock()
			sp.Close()
			return nil
		}
		p.port = sp
		p.mu.Unlock()

		p.reopens.Add(1)
		slog.Info("gps: serial port reopened")
		return sp
	}
}

func (p *Port) stopping() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

// Pending implements Feed.
func (p *Port) Pending() []byte {
	var out []byte
	for {
		select {
		case c := <-p.chunks:
			out = append(out, c...)
		default:
			return out
		}
	}
}

// Dropped returns how many chunks were discarded because the queue was full.
func (p *Port) Dropped() uint64 {
	return p.dropped.Load()
}

// Reopens returns how many times the device was reopened after a failure.
func (p *Port) Reopens() uint64 {
	return p.reopens.Load()
}

// Close stops the reader and releases the device.
func (p *Port) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })

	p.mu.Lock()
	var err error
	if p.port != nil {
		err = p.port.Close()
		p.port = nil
	}
	p.mu.Unlock()

	<-p.done
	if err != nil {
		return fmt.Errorf("close serial: %w", err)
	}
	return nil
}
