package server

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stashd/stashd/metrics/metricstest"
)

func TestNormalConnectionMetrics(t *testing.T) {
	doTest(t, true, true)
}

func TestAcceptErrorMetrics(t *testing.T) {
	doTest(t, false, false)
}

func TestCloseErrorMetrics(t *testing.T) {
	doTest(t, true, false)
}

func doTest(t *testing.T, allowAccept bool, allowClose bool) {
	m, mock := metricstest.CreateMockMetrics()

	var listener net.Listener = &mockListener{
		listenSuccess: allowAccept,
		closeSuccess:  allowClose,
	}

	listener = &monitorableListener{listener, m}
	conn, err := listener.Accept()
	if !allowAccept {
		assert.Error(t, err, "The listener.Accept() error should propagate from the underlying listener.")
		assert.Equal(t, int64(0), mock.Counts["connections.opened"])
		assert.Equal(t, int64(1), mock.Counts["connections.accept_errors"])
		assert.Equal(t, int64(0), mock.Counts["connections.close_errors"])
		return
	}
	assert.Equal(t, int64(1), mock.Counts["connections.opened"])
	assert.Equal(t, int64(0), mock.Counts["connections.accept_errors"])

	err = conn.Close()
	if allowClose {
		assert.NoError(t, err)
		assert.Equal(t, int64(1), mock.Counts["connections.closed"])
		assert.Equal(t, int64(0), mock.Counts["connections.close_errors"])
	} else {
		assert.Error(t, err, "The connection.Close() error should propagate from the underlying connection.")
		assert.Equal(t, int64(0), mock.Counts["connections.closed"])
		assert.Equal(t, int64(1), mock.Counts["connections.close_errors"])
	}
}

type mockListener struct {
	listenSuccess bool
	closeSuccess  bool
}

func (l *mockListener) Accept() (net.Conn, error) {
	if l.listenSuccess {
		return &mockConnection{l.closeSuccess}, nil
	}
	return nil, errors.New("Failed to open connection")
}

func (l *mockListener) Close() error {
	return nil
}

func (l *mockListener) Addr() net.Addr {
	return &mockAddr{}
}

type mockConnection struct {
	closeSuccess bool
}

func (c *mockConnection) Read(b []byte) (n int, err error) {
	return len(b), nil
}

func (c *mockConnection) Write(b []byte) (n int, err error) {
	return
}

func (c *mockConnection) Close() error {
	if c.closeSuccess {
		return nil
	}
	return errors.New("Failed to close connection.")
}

func (c *mockConnection) LocalAddr() net.Addr {
	return &mockAddr{}
}

func (c *mockConnection) RemoteAddr() net.Addr {
	return &mockAddr{}
}

func (c *mockConnection) SetDeadline(t time.Time) error {
	return nil
}

func (c *mockConnection) SetReadDeadline(t time.Time) error {
	return nil
}

func (c *mockConnection) SetWriteDeadline(t time.Time) error {
	return nil
}

type mockAddr struct{}

func (m *mockAddr) Network() string {
	return "tcp"
}

func (m *mockAddr) String() string {
	return "192.0.2.1:25"
}
