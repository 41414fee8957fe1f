// Package ptytransport adapts a pseudo-terminal to transport.Transport for
// local development and the demo app, grounded on
// doismellburning-samoyed/src/kiss.go's kisspt_open_pt (github.com/creack/pty's
// pty.Open, a master/slave pair with the slave's device path handed to
// whatever process plays the role of the host-side decoder).
package ptytransport

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/creack/pty"
	"github.com/emolog/emolog-client/pkg/rxassembler"
	"github.com/emolog/emolog-client/pkg/txring"
)

// Transport holds both ends of a PTY pair. The master is read from/written to
// by this process; SlavePath() is what a host-side decoder process should
// open.
type Transport struct {
	master *os.File
	slave  *os.File
	rx     *rxassembler.Assembler
	tx     *txring.Ring

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// Open creates a new PTY pair and starts the background read loop on the
// master end, feeding rx. tx is the ring this Transport drains on Enqueue.
func Open(rx *rxassembler.Assembler, tx *txring.Ring) (*Transport, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("ptytransport: open: %w", err)
	}
	t := &Transport{
		master:   master,
		slave:    slave,
		rx:       rx,
		tx:       tx,
		stopChan: make(chan struct{}),
	}
	t.wg.Add(1)
	go t.readLoop()
	return t, nil
}

// SlavePath returns the device path of the PTY's slave end.
func (t *Transport) SlavePath() string { return t.slave.Name() }

// Enqueue puts frame on the TX ring and drains it out the master end.
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
	if _, err := t.master.Write(out); err != nil {
		log.Printf("ptytransport: write error: %v", err)
	}
}

// PollStep is a no-op; the background read loop and Enqueue's immediate
// drain already pump both directions.
func (t *Transport) PollStep() {}

// Close stops the read loop and closes both ends of the PTY.
func (t *Transport) Close() error {
	close(t.stopChan)
	t.wg.Wait()
	err := t.master.Close()
	if serr := t.slave.Close(); err == nil {
		err = serr
	}
	return err
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
		n, err := t.master.Read(buf)
		if err != nil {
			if err != io.EOF {
				log.Printf("ptytransport: read error: %v", err)
			}
			continue
		}
		if n == 0 {
			continue
		}
		t.rx.Feed(buf[:n])
	}
}
