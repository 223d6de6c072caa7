package server

import (
	"net"
	"strings"
	"sync"
	"time"
)

// mockConn is a net.Conn that records everything written to it.
// Reads block forever unless the conn is closed, which is fine for
// tests that only exercise the write side.
type mockConn struct {
	mu      sync.Mutex
	written strings.Builder
	closed  bool
	failNow bool // when set, writes return an error
	closeCh chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{closeCh: make(chan struct{})}
}

func (c *mockConn) Read(b []byte) (int, error) {
	<-c.closeCh
	return 0, net.ErrClosed
}

func (c *mockConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.failNow {
		return 0, net.ErrClosed
	}
	c.written.Write(b)
	return len(b), nil
}

func (c *mockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.closeCh)
	}
	return nil
}

func (c *mockConn) failWrites() {
	c.mu.Lock()
	c.failNow = true
	c.mu.Unlock()
}

// lines returns the complete lines written so far
func (c *mockConn) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := strings.TrimSuffix(c.written.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func (c *mockConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *mockConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *mockConn) SetDeadline(t time.Time) error      { return nil }
func (c *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *mockConn) SetWriteDeadline(t time.Time) error { return nil }
