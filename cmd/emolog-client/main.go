package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emolog/emolog-client/pkg/metrics"
	"github.com/emolog/emolog-client/pkg/metrics/redismetrics"
	"github.com/emolog/emolog-client/pkg/protocol"
	"github.com/emolog/emolog-client/pkg/rxassembler"
	"github.com/emolog/emolog-client/pkg/sampler"
	"github.com/emolog/emolog-client/pkg/session"
	"github.com/emolog/emolog-client/pkg/transport"
	"github.com/emolog/emolog-client/pkg/transport/ptytransport"
	"github.com/emolog/emolog-client/pkg/transport/serialtransport"
	"github.com/emolog/emolog-client/pkg/transport/tcptransport"
	"github.com/emolog/emolog-client/pkg/txring"
	"github.com/spf13/pflag"
)

var (
	transportKind = pflag.StringP("transport", "t", "tcp", "Transport to use: tcp, serial, or pty.")
	serialDevice  = pflag.StringP("serial", "s", "/dev/ttyUSB0", "Serial device path (transport=serial).")
	baudRate      = pflag.IntP("baud", "b", 115200, "Serial baud rate (transport=serial).")
	tickInterval  = pflag.DurationP("tick-interval", "i", 50*time.Millisecond, "Wall-clock interval between run_step ticks.")
	txRingSize    = pflag.Int("tx-ring-size", 32768, "TX ring buffer capacity in bytes.")
	rxBufSize     = pflag.Int("rx-buf-size", rxassembler.DefaultCapacity, "RX assembler buffer capacity in bytes.")
	redisAddr     = pflag.String("redis-addr", "", "Redis address for the metrics sink (empty disables Redis metrics).")
	redisPass     = pflag.String("redis-pass", "", "Redis password.")
	redisDB       = pflag.Int("redis-db", 0, "Redis database number.")
	help          = pflag.BoolP("help", "h", false, "Display help text.")
)

// demoMemory backs the two variables the reference example client samples:
// a sawtooth counter and a sine wave (emolog_example_client.c). address 0
// holds sawtooth (u32), address 4 holds sine (f32, bit-patterned into u32).
type demoMemory struct {
	sawtooth uint32
	sine     float32
}

func (d *demoMemory) Read(address uint32, size uint16, dst []byte) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], d.sawtooth)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(d.sine))
	if int(address)+int(size) > len(buf) {
		return fmt.Errorf("demoMemory: read of %d bytes at 0x%x out of range", size, address)
	}
	copy(dst[:size], buf[address:address+uint32(size)])
	return nil
}

func (d *demoMemory) tick(ticks uint32) {
	d.sawtooth = (d.sawtooth + 1) % 100
	d.sine = 50.0 * float32(math.Sin(2*math.Pi*float64(ticks)/100.0))
}

func main() {
	pflag.Usage = func() {
		log.Printf("Usage of emolog-client:")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting Emolog client (transport=%s)", *transportKind)

	var metricsSink metrics.Sink = metrics.NoOp{}
	if *redisAddr != "" {
		sink, err := redismetrics.New(*redisAddr, *redisPass, *redisDB, "")
		if err != nil {
			log.Fatalf("Failed to connect metrics sink to Redis: %v", err)
		}
		defer sink.Close()
		metricsSink = sink
		log.Printf("Metrics sink connected to Redis at %s", *redisAddr)
	}

	rx := rxassembler.New(*rxBufSize)
	rx.OnOverflow = func(dropped int) { metricsSink.IncRXBytesDropped(dropped) }

	tx := txring.New(*txRingSize)

	var tr transport.Transport
	var err error
	switch *transportKind {
	case "tcp":
		log.Printf("Listening for a TCP connection (EMOLOG_PC_PORT, default %d)...", tcptransport.DefaultPort)
		tr, err = tcptransport.Listen(rx, tx)
	case "serial":
		log.Printf("Opening serial device %s at %d baud...", *serialDevice, *baudRate)
		tr, err = serialtransport.Open(*serialDevice, *baudRate, rx, tx)
	case "pty":
		var pt *ptytransport.Transport
		pt, err = ptytransport.Open(rx, tx)
		if err == nil {
			log.Printf("PTY transport ready; host decoder should open %s", pt.SlavePath())
			tr = pt
		}
	default:
		log.Fatalf("Unknown transport %q (want tcp, serial, or pty)", *transportKind)
	}
	if err != nil {
		log.Fatalf("Failed to start transport: %v", err)
	}
	defer tr.Close()
	log.Printf("Transport ready")

	// The sampler must enqueue through the transport's own Enqueue, not the
	// TX ring directly: each adapter's Enqueue is the only place that
	// drains bytes to the wire (PollStep is RX-only or a no-op).
	mem := &demoMemory{}
	sam := sampler.New(mem, func(frame []byte) bool { return tr.Enqueue(frame) })
	sam.OnDroppedSample = func() { metricsSink.IncDroppedSamples(1) }

	sess := session.New(rx, sam, tx, tr, nil)
	sess.OnDroppedResponse = func(protocol.MessageType) { metricsSink.IncDroppedResponses(1) }
	sess.Init()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*tickInterval)
	defer ticker.Stop()

	var ticks uint32
	log.Printf("Running session loop at %s per tick", *tickInterval)
	for {
		select {
		case <-sigCh:
			log.Printf("Shutting down...")
			return
		case <-ticker.C:
			mem.tick(ticks)
			sess.RunStep(ticks)
			metricsSink.SetTXOccupancy(tx.Len(), tx.Cap())
			ticks++
		}
	}
}
