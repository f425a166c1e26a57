package control

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	successLine  = "SUCCESS\n"
	errorLine    = "ERROR\n"
)

// Server owns the resident's loopback endpoint.
type Server interface {
	// Start binds the first port of the range. If occupied, it fails.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one client connection carrying one request.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// NewServer returns a TCP server for the inclusive port range.
func NewServer(portStart, portEnd int) Server {
	return &tcpServer{start: portStart, end: portEnd, incoming: make(chan *tcpConn, 8)}
}

type tcpServer struct {
	start, end int

	mu       sync.Mutex
	lis      net.Listener
	port     int
	incoming chan *tcpConn
}

func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", residentHost, s.start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("control: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = lis.Addr().(*net.TCPAddr).Port
	log.Printf("control: listening on %s", lis.Addr())
	go s.acceptLoop(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		go s.handshake(ctx, c)
	}
}

// handshake answers PING inline and queues anything else as a request.
func (s *tcpServer) handshake(ctx context.Context, c net.Conn) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	line, err := br.ReadString('\n')
	if err != nil {
		_ = c.Close()
		return
	}
	if line == pingRequest {
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
		return
	}
	_ = c.SetDeadline(time.Time{})

	tc := &tcpConn{c: c, w: bw}
	req, err := decodeRequest(line)
	if err != nil {
		log.Printf("control: bad request from %s: %v", remote, err)
		_ = tc.RespondError(err.Error())
		_ = tc.Close()
		return
	}
	tc.r = req
	log.Printf("control: %s from %s", req, remote)

	select {
	case s.incoming <- tc:
	case <-ctx.Done():
		_ = tc.Close()
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	err := s.lis.Close()
	s.lis = nil
	return err
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(text string) error {
	if _, err := tc.w.WriteString(successLine + text); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errorLine + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
