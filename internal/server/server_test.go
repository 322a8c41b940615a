package server

import (
	"net"
	"testing"

	"github.com/panjf2000/gnet/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wispkv/wisp/internal/store"
)

// mockConn implements just enough of gnet.Conn to drive OnTraffic
// without a real socket, in the style of redhub's own test suite.
type mockConn struct {
	gnet.Conn
	written []byte
	buf     []byte
	closed  bool
	ctx     interface{}
}

func (m *mockConn) Write(b []byte) (int, error) {
	m.written = append(m.written, b...)
	return len(b), nil
}

func (m *mockConn) Writev(bufs [][]byte) (int, error) {
	n := 0
	for _, b := range bufs {
		m.written = append(m.written, b...)
		n += len(b)
	}
	return n, nil
}

func (m *mockConn) Close() error {
	m.closed = true
	return nil
}

func (m *mockConn) Next(n int) ([]byte, error) {
	if len(m.buf) == 0 {
		return nil, nil
	}
	if n < 0 || n > len(m.buf) {
		n = len(m.buf)
	}
	b := m.buf[:n]
	m.buf = m.buf[n:]
	return b, nil
}

func (m *mockConn) Context() interface{}     { return m.ctx }
func (m *mockConn) SetContext(v interface{}) { m.ctx = v }
func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 6379}
}

func newOpenedConn(t *testing.T, srv *Server, payload string) *mockConn {
	t.Helper()
	mock := &mockConn{buf: []byte(payload)}
	_, action := srv.OnOpen(mock)
	require.Equal(t, gnet.None, action)
	return mock
}

func TestOnTrafficSimpleCommand(t *testing.T) {
	srv := New(store.New(), nil)
	mock := newOpenedConn(t, srv, "*1\r\n$4\r\nPING\r\n")

	action := srv.OnTraffic(mock)
	assert.Equal(t, gnet.None, action)
	assert.Equal(t, "+PONG\r\n", string(mock.written))
}

func TestOnTrafficPipelinedCommands(t *testing.T) {
	srv := New(store.New(), nil)
	mock := newOpenedConn(t, srv,
		"*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"+
			"*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")

	srv.OnTraffic(mock)
	assert.Equal(t, "+OK\r\n$3\r\nbar\r\n", string(mock.written))
}

func TestOnTrafficSplitAcrossReads(t *testing.T) {
	srv := New(store.New(), nil)
	mock := newOpenedConn(t, srv, "*2\r\n$3\r\nGE")

	action := srv.OnTraffic(mock)
	assert.Equal(t, gnet.None, action)
	assert.Empty(t, mock.written)

	mock.buf = []byte("T\r\n$3\r\nfoo\r\n")
	action = srv.OnTraffic(mock)
	assert.Equal(t, gnet.None, action)
	assert.Equal(t, "$-1\r\n", string(mock.written))
}

func TestOnTrafficFramingErrorClosesSession(t *testing.T) {
	srv := New(store.New(), nil)
	mock := newOpenedConn(t, srv, "not-resp-at-all\r\n")

	action := srv.OnTraffic(mock)
	assert.Equal(t, gnet.Close, action)
	assert.Contains(t, string(mock.written), "ERR")
}

func TestOnTrafficUnknownConnectionIsNoop(t *testing.T) {
	srv := New(store.New(), nil)
	mock := &mockConn{buf: []byte("*1\r\n$4\r\nPING\r\n")}

	action := srv.OnTraffic(mock)
	assert.Equal(t, gnet.None, action)
	assert.Empty(t, mock.written)
}

func TestOnCloseReleasesBuffer(t *testing.T) {
	srv := New(store.New(), nil)
	mock := newOpenedConn(t, srv, "")

	srv.OnClose(mock, nil)
	srv.connsMu.RLock()
	_, ok := srv.conns[mock]
	srv.connsMu.RUnlock()
	assert.False(t, ok)
}
