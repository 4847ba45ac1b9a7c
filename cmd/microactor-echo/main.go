// Command microactor-echo runs a length-prefixed packet echo server,
// exercising the reactor and the full transport stack (raw connection,
// Buffered, Packet) end to end over a real TCP listener.
//
// Run with: go run ./cmd/microactor-echo -addr :9090
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/pombreda/microactor/reactor"
	"github.com/pombreda/microactor/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:0", "address to listen on")
	maxPacket := flag.Int("max-packet", 1<<20, "maximum accepted packet length in bytes")
	flag.Parse()

	logger := stumpy.L.New(stumpy.L.WithStumpy())

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen:", err)
		os.Exit(1)
	}
	defer ln.Close()

	r, err := reactor.New(reactor.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "reactor.New:", err)
		os.Exit(1)
	}

	logger.Info().Str(`addr`, ln.Addr().String()).Log(`listening`)

	acceptLoop(r, ln, *maxPacket, logger)

	if err := r.Run(); err != nil {
		logger.Err().Err(err).Log(`reactor exited`)
		os.Exit(1)
	}
}

// acceptLoop drives a step computation that repeatedly awaits a new
// connection and spawns a handler for it, never blocking the reactor
// thread on the network accept itself.
func acceptLoop(r *reactor.Reactor, ln net.Listener, maxPacket int, logger *reactor.Logger) {
	reactor.Go(r, func(y *reactor.Yield) (any, error) {
		for {
			conn, err := reactor.Await(y, transport.Accept(r, ln))
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil, nil
				}
				logger.Err().Err(err).Log(`accept failed`)
				continue
			}
			handleConn(r, conn, maxPacket, logger)
		}
	})
}

func handleConn(r *reactor.Reactor, conn transport.Transport, maxPacket int, logger *reactor.Logger) {
	pkt := transport.NewPacket(r, conn, maxPacket)
	reactor.Go(r, func(y *reactor.Yield) (any, error) {
		defer func() { reactor.Await(y, pkt.Close()) }()
		for {
			data, err := reactor.Await(y, pkt.Recv())
			if err != nil {
				var tooLong *transport.PacketTooLong
				if errors.As(err, &tooLong) {
					logger.Err().Err(err).Log(`rejecting oversized packet`)
				}
				return nil, nil
			}
			if len(data) == 0 {
				return nil, nil
			}
			if _, err := reactor.Await(y, pkt.Send(data, true)); err != nil {
				return nil, err
			}
		}
	})
}
