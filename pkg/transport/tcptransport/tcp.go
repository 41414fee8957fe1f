// Package tcptransport implements the reference Linux development
// transport: a single-connection TCP server, grounded on
// original_source/emolog_embedded/source/Linux/emolog_comm_linux.c. Unlike
// the serial/PTY adapters it has no background read goroutine; PollStep
// performs a non-blocking recv exactly like the original's
// consume_available_bytes, matching spec.md §4.7's "poll step for
// non-interrupt transports".
package tcptransport

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/emolog/emolog-client/pkg/rxassembler"
	"github.com/emolog/emolog-client/pkg/txring"
)

// DefaultPort is used when EMOLOG_PC_PORT is unset, matching
// get_connection_port's fallback.
const DefaultPort = 10000

// portFromEnv mirrors get_connection_port: read EMOLOG_PC_PORT, default
// 10000 on anything unparsable or absent.
func portFromEnv() int {
	v := os.Getenv("EMOLOG_PC_PORT")
	if v == "" {
		return DefaultPort
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return DefaultPort
	}
	return p
}

// Transport is a one-shot TCP server transport: Listen blocks until exactly
// one client connects, then PollStep pumps the receive direction and
// Enqueue sends synchronously.
type Transport struct {
	ln   net.Listener
	conn net.Conn
	rx   *rxassembler.Assembler
	tx   *txring.Ring

	recvBuf [64 * 1024]byte
}

// Listen binds the port named by EMOLOG_PC_PORT (or DefaultPort) and blocks
// until one client connects, matching comm_setup's
// init_wait_for_socket_connection.
func Listen(rx *rxassembler.Assembler, tx *txring.Ring) (*Transport, error) {
	port := portFromEnv()
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("tcptransport: listen on port %d: %w", port, err)
	}
	conn, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("tcptransport: accept: %w", err)
	}
	return &Transport{ln: ln, conn: conn, rx: rx, tx: tx}, nil
}

// Enqueue writes frame directly to the socket, matching comm_queue_message's
// direct blocking send; the TX ring is still used so that RunStep's other
// callers (e.g. the sampler) share one enqueue point, but this adapter
// drains it synchronously rather than relying on a background goroutine.
func (t *Transport) Enqueue(frame []byte) bool {
	if !t.tx.Put(frame) {
		return false
	}
	var out []byte
	t.tx.Drain(func(b byte) bool {
		out = append(out, b)
		return true
	})
	if len(out) == 0 {
		return true
	}
	if _, err := t.conn.Write(out); err != nil {
		log.Printf("tcptransport: send error: %v", err)
		return false
	}
	return true
}

// PollStep performs one non-blocking recv, feeding whatever arrived to the
// RX assembler — the direct analogue of consume_available_bytes.
func (t *Transport) PollStep() {
	t.conn.SetReadDeadline(time.Now())
	n, err := t.conn.Read(t.recvBuf[:])
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return
		}
		return
	}
	if n > 0 {
		t.rx.Feed(t.recvBuf[:n])
	}
}

// Close closes the accepted connection and the listener.
func (t *Transport) Close() error {
	err := t.conn.Close()
	if lerr := t.ln.Close(); err == nil {
		err = lerr
	}
	return err
}
