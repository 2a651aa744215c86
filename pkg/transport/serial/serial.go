// Package serial drives a SNAP frame decoder from a UART, one byte at a
// time, the way pkg/usock drove the bluetooth-service's own framing state
// machine.
package serial

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/librescoot/snap-framing/pkg/snap"
)

// Handler receives a completed frame's terminal status and its decoded
// bytes. bytes is a fresh copy that the handler may keep after the call.
type Handler func(status snap.Status, bytes []byte)

// Port reads SNAP frames from a serial device and calls a Handler for
// every completed frame (VALID, ERROR_HASH, or ERROR_OVERFLOW).
type Port struct {
	port    serial.Port
	frame   *snap.Frame
	handler Handler

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu sync.Mutex
}

// Option configures a Port at construction.
type Option func(*Port)

// WithUserHash injects the algorithm EDM 7 dispatches to when decoding.
func WithUserHash(h snap.UserHash) Option {
	return func(p *Port) { p.frame = mustFrameWithHash(h) }
}

func mustFrameWithHash(h snap.UserHash) *snap.Frame {
	f, err := snap.NewFrame(make([]byte, snap.MaxFrame), snap.WithUserHash(h))
	if err != nil {
		panic(err) // unreachable: a freshly allocated MaxFrame buffer always validates
	}
	return f
}

// Open opens devicePath at baudRate and starts a background read loop that
// decodes SNAP frames and invokes handler for each one.
func Open(devicePath string, baudRate int, handler Handler, opts ...Option) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(devicePath, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %v", err)
	}

	p := &Port{
		port:     port,
		handler:  handler,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.frame == nil {
		f, err := snap.NewFrame(make([]byte, snap.MaxFrame))
		if err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to allocate frame buffer: %v", err)
		}
		p.frame = f
	}

	p.wg.Add(1)
	go p.readLoop()

	return p, nil
}

// Write sends a pre-encapsulated SNAP frame's bytes over the port.
func (p *Port) Write(frameBytes []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.port.Write(frameBytes); err != nil {
		return fmt.Errorf("failed to write frame: %v", err)
	}
	return nil
}

// Close stops the read loop and closes the underlying port.
func (p *Port) Close() error {
	close(p.stopChan)
	// Closing the port unblocks a pending Read so the loop can see stopChan.
	err := p.port.Close()
	p.wg.Wait()
	return err
}

func (p *Port) readLoop() {
	defer p.wg.Done()

	buf := make([]byte, 1)
	log.Printf("Starting SNAP serial read loop")

	for {
		select {
		case <-p.stopChan:
			return
		default:
			n, err := p.port.Read(buf)
			if err != nil {
				if err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
					time.Sleep(10 * time.Millisecond)
				}
				continue
			}
			if n == 0 {
				continue
			}
			p.processByte(buf[0])
		}
	}
}

func (p *Port) processByte(b byte) {
	status := p.frame.Decode(b)

	switch status {
	case snap.StatusValid, snap.StatusErrorHash, snap.StatusErrorOverflow:
		bytes := append([]byte(nil), p.frame.Bytes()...)
		if p.handler != nil {
			p.handler(status, bytes)
		}
		p.frame.Reset()
	}
}
