// Package server implements the session loop & dispatcher: an
// event-driven TCP front end, built on gnet, that reassembles RESP
// requests from each connection's byte stream and routes them into the
// keyspace engine in internal/store.
//
// A connection's traffic is always delivered to a single goroutine at a
// time by gnet, which is what gives the "sequential request/response
// cycle within a session" property spec.md requires without this
// package needing to manage its own per-connection goroutine.
package server

import (
	"context"
	"strings"
	"sync"

	"github.com/panjf2000/gnet/v2"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"

	"github.com/wispkv/wisp/internal/resp"
	"github.com/wispkv/wisp/internal/store"
)

// Server is the gnet event handler for the key/value protocol. The zero
// value is not usable; construct with New.
type Server struct {
	gnet.BuiltinEventEngine

	store  *store.Store
	log    *zap.Logger
	engine gnet.Engine

	connsMu sync.RWMutex
	conns   map[gnet.Conn]*bytebufferpool.ByteBuffer
}

// New builds a Server dispatching into db and logging through log. A
// nil log falls back to zap.NewNop(), so callers that don't care about
// logging don't need to special-case it.
func New(db *store.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store: db,
		log:   log,
		conns: make(map[gnet.Conn]*bytebufferpool.ByteBuffer),
	}
}

// OnBoot records the engine handle so Close can later ask gnet to stop.
func (srv *Server) OnBoot(eng gnet.Engine) gnet.Action {
	srv.engine = eng
	return gnet.None
}

// OnOpen allocates the connection's accumulation buffer.
func (srv *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	srv.connsMu.Lock()
	srv.conns[c] = bytebufferpool.Get()
	srv.connsMu.Unlock()
	srv.log.Info("New Connection", zap.String("remote", remoteAddr(c)))
	return nil, gnet.None
}

// OnClose releases the connection's buffer back to the pool.
func (srv *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	srv.connsMu.Lock()
	if buf, ok := srv.conns[c]; ok {
		bytebufferpool.Put(buf)
		delete(srv.conns, c)
	}
	srv.connsMu.Unlock()
	if err != nil {
		srv.log.Info("Client closed the connection", zap.String("remote", remoteAddr(c)), zap.Error(err))
	} else {
		srv.log.Info("Client closed the connection", zap.String("remote", remoteAddr(c)))
	}
	return gnet.None
}

// OnTraffic reassembles complete requests from c's accumulated bytes,
// dispatches each one, and writes every reply accumulated so far in a
// single call. A framing error terminates the session: the replies
// already queued are written together with one "ERR Protocol error"
// reply, and the connection is then closed.
func (srv *Server) OnTraffic(c gnet.Conn) gnet.Action {
	srv.connsMu.RLock()
	buf, ok := srv.conns[c]
	srv.connsMu.RUnlock()
	if !ok {
		return gnet.None
	}

	chunk, _ := c.Next(-1)
	if len(chunk) == 0 {
		return gnet.None
	}
	buf.Write(chunk)

	var out []byte
	data := buf.Bytes()
	consumedTotal := 0
	for {
		args, consumed, err := resp.ReadCommand(data)
		if err != nil {
			out = resp.AppendError(out, "ERR "+err.Error())
			if len(out) > 0 {
				_, _ = c.Write(out)
			}
			return gnet.Close
		}
		if consumed == 0 {
			break // incomplete request; wait for more bytes
		}
		out = dispatch(srv.store, args, out)
		data = data[consumed:]
		consumedTotal += consumed
	}

	if consumedTotal > 0 {
		remaining := append([]byte(nil), data...)
		buf.Reset()
		buf.Write(remaining)
	}
	if len(out) > 0 {
		_, _ = c.Write(out)
	}
	return gnet.None
}

// Close stops the underlying gnet engine. Safe to call once the server
// has finished booting.
func (srv *Server) Close() error {
	return srv.engine.Stop(context.Background())
}

func remoteAddr(c gnet.Conn) string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return "unknown"
}

// ListenAndServe starts the server on addr (e.g. "tcp://0.0.0.0:6379")
// and blocks until the listener stops or an error occurs.
func ListenAndServe(addr string, srv *Server, multicore, reusePort bool) error {
	opts := []gnet.Option{
		gnet.WithMulticore(multicore),
		gnet.WithReusePort(reusePort),
	}
	return gnet.Run(srv, addr, opts...)
}

// lowerCommand returns args[0] lowercased for case-insensitive dispatch
// without mutating the caller's slice.
func lowerCommand(args [][]byte) string {
	return strings.ToLower(string(args[0]))
}
