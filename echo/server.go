// Package echo implements a minimal TCP echo service: every byte read
// from a connection is written straight back until the peer closes it.
package echo

import (
	"context"
	"errors"
	"io"
	"net"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nrc/apr-intro/logging"
)

const defaultBufferSize = 1024

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithLogger sets the logger for connection-level diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBufferSize sets the per-connection read buffer size, must be
// greater than 0. If not, it will be ignored.
func WithBufferSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.bufSize = size
		}
	}
}

// WithRateLimit limits how fast new connections are accepted.
// connsPerSec is the sustained accept rate, burst the number of
// connections that may be accepted back to back. If not specified, no
// limiting is applied.
func WithRateLimit(connsPerSec float64, burst int) Option {
	return func(s *Server) {
		if connsPerSec > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(connsPerSec), burst)
		}
	}
}

// Server echoes TCP connections. The zero value is not usable; create
// one with NewServer.
type Server struct {
	logger  logging.Logger
	limiter *rate.Limiter
	bufSize int
}

// NewServer creates an echo server with the given options.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:  logging.Discard,
		bufSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe listens on the TCP address addr and serves echo
// connections until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections from l, echoing each on its own goroutine,
// until ctx is canceled or Accept fails. It closes the listener and
// waits for in-flight connections before returning. Cancellation is
// reported as nil.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock Accept when the context goes.
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	s.logger.Printf("listening on %s", l.Addr())

	var g errgroup.Group
	var err error
	for {
		if s.limiter != nil {
			if werr := s.limiter.Wait(ctx); werr != nil {
				break
			}
		}

		conn, aerr := l.Accept()
		if aerr != nil {
			if ctx.Err() == nil && !errors.Is(aerr, net.ErrClosed) {
				err = aerr
			}
			break
		}

		g.Go(func() error {
			// Cancellation closes the connection so idle peers do not
			// hold up shutdown.
			stop := context.AfterFunc(ctx, func() { conn.Close() })
			defer stop()
			s.handle(conn)
			return nil
		})
	}

	cancel()
	_ = g.Wait()
	return err
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	s.logger.Printf("connection from %s", conn.RemoteAddr())

	buf := make([]byte, s.bufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				s.logger.Printf("write to %s: %v", conn.RemoteAddr(), werr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Printf("read from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
	}
}
