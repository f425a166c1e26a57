package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	overlayerrors "stealth-overlay/src/errors"
)

// ErrNoResident means no overlay answered on the port range.
var ErrNoResident = errors.New("no running overlay found")

// Client sends requests to a running overlay.
type Client struct {
	start, end  int
	pingTimeout time.Duration
}

func NewClient(portStart, portEnd int) *Client {
	return &Client{start: portStart, end: portEnd, pingTimeout: 300 * time.Millisecond}
}

// Detect scans the port range and returns (port, true) if a resident responds to PING.
func (c *Client) Detect(ctx context.Context) (int, bool) {
	for port := c.start; port <= c.end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(joinAddr(port), c.pingTimeout) {
			return port, true
		}
	}
	return 0, false
}

// PortInUse reports whether something is already listening on port.
func PortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", joinAddr(port), 300*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Do sends req to the first resident found and returns its reply text. A
// resident-reported failure comes back as a *RemoteError.
func (c *Client) Do(ctx context.Context, req Request) (string, error) {
	port, ok := c.Detect(ctx)
	if !ok {
		return "", ErrNoResident
	}
	return c.DoAt(ctx, port, req)
}

// DoAt is Do against a known port.
func (c *Client) DoAt(ctx context.Context, port int, req Request) (string, error) {
	line, err := encodeRequest(req)
	if err != nil {
		return "", err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", joinAddr(port))
	if err != nil {
		return "", overlayerrors.NewTransport(fmt.Errorf("connect to overlay: %w", err))
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(line); err != nil {
		return "", overlayerrors.NewTransport(err)
	}
	if err := w.Flush(); err != nil {
		return "", overlayerrors.NewTransport(err)
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return "", overlayerrors.NewTransport(fmt.Errorf("read reply: %w", err))
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return "", overlayerrors.NewTransport(fmt.Errorf("read reply: %w", err))
	}

	switch status {
	case successLine:
		return string(body), nil
	case errorLine:
		return "", &RemoteError{Message: string(body)}
	default:
		return "", fmt.Errorf("unexpected reply %q", strings.TrimSpace(status))
	}
}

// RemoteError is a failure reported by the overlay itself.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func joinAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(pingRequest); err != nil {
		return false
	}
	if err := w.Flush(); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
