// Package serialtransport adapts a UART device to the transport.Transport
// interface, grounded on pkg/usock/usock.go's serial-port handling (open
// with tarm/serial, byte-at-a-time read loop) but re-pointed at the Emolog
// framing and RX assembler instead of USOCK's own frame state machine.
package serialtransport

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/emolog/emolog-client/pkg/rxassembler"
	"github.com/emolog/emolog-client/pkg/txring"
	"github.com/tarm/serial"
)

// Transport drives a UART: a background goroutine reads bytes and feeds
// them to an rxassembler.Assembler, and Enqueue puts outgoing bytes on a
// txring.Ring and drains them out the same port. There is no real
// interrupt context on a host OS, so the ring's own mutex stands in for the
// original's interrupts_disable/interrupts_enable critical section (see
// pkg/txring).
type Transport struct {
	port *serial.Port
	rx   *rxassembler.Assembler
	tx   *txring.Ring

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// Open opens devicePath at baud and starts the background read loop that
// feeds rx. tx is the ring this Transport drains whenever Enqueue succeeds.
func Open(devicePath string, baud int, rx *rxassembler.Assembler, tx *txring.Ring) (*Transport, error) {
	cfg := &serial.Config{
		Name:        devicePath,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 0,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("serialtransport: open %s: %w", devicePath, err)
	}

	t := &Transport{
		port:     port,
		rx:       rx,
		tx:       tx,
		stopChan: make(chan struct{}),
	}
	t.wg.Add(1)
	go t.readLoop()
	return t, nil
}

// Enqueue puts frame on the TX ring and immediately drains whatever fits out
// the port. It returns false when the ring itself is full, matching
// comm_queue_message's bool contract.
func (t *Transport) Enqueue(frame []byte) bool {
	if !t.tx.Put(frame) {
		return false
	}
	t.drain()
	return true
}

func (t *Transport) drain() {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []byte
	t.tx.Drain(func(b byte) bool {
		out = append(out, b)
		return true
	})
	if len(out) == 0 {
		return
	}
	if _, err := t.port.Write(out); err != nil {
		log.Printf("serialtransport: write error: %v", err)
	}
}

// PollStep is a no-op: the background read loop and Enqueue's immediate
// drain already pump I/O without needing a poll from the session loop.
func (t *Transport) PollStep() {}

// Close stops the read loop and closes the port.
func (t *Transport) Close() error {
	close(t.stopChan)
	t.wg.Wait()
	return t.port.Close()
}

func (t *Transport) readLoop() {
	defer t.wg.Done()
	buf := make([]byte, 256)
	for {
		select {
		case <-t.stopChan:
			return
		default:
		}
		n, err := t.port.Read(buf)
		if err != nil {
			if err != io.EOF {
				log.Printf("serialtransport: read error: %v", err)
			}
			continue
		}
		if n == 0 {
			continue
		}
		t.rx.Feed(buf[:n])
	}
}
