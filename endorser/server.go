package endorser

import (
	"net"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/forestrie/nimble/rpcwire"
	"github.com/forestrie/nimble/transport"
)

// Server binds a single TCP listener and serves rpcwire requests against
// a Service, one goroutine per connection (spec.md §6: "Endorser binds to
// a single TCP listener; no authentication on the inbound channel").
type Server struct {
	log     logger.Logger
	service *Service
}

// NewServer creates a Server over service.
func NewServer(log logger.Logger, service *Service) *Server {
	return &Server{log: log, service: service}
}

// ListenAndServe binds addr and serves connections until ln.Accept returns
// an error, which includes the listener being closed. Temporary accept
// errors are not retried.
func (srv *Server) ListenAndServe(addr string) error {
	ln, err := transport.Listen(addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	srv.log.Infof("endorser listening on %s", addr)

	return srv.Serve(ln)
}

// Serve accepts connections off an already-bound listener. Split out
// from ListenAndServe so tests can bind an ephemeral port (":0") and
// read back the resolved address before serving.
func (srv *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go srv.serveConn(conn)
	}
}

// serveConn reads one rpcwire.Envelope at a time off conn, dispatches
// each to the Service, and writes back a Reply. It exits on the first
// framing error, which for a plain TCP socket is also how an orderly
// client disconnect is observed.
func (srv *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	for {
		raw, err := transport.ReadFrame(conn)
		if err != nil {
			return
		}

		var env rpcwire.Envelope
		if err := rpcwire.Unmarshal(raw, &env); err != nil {
			srv.log.Infof("endorser: malformed envelope from %s: %v", conn.RemoteAddr(), err)
			return
		}

		reply, err := srv.service.Dispatch(env)
		if err != nil {
			srv.log.Infof("endorser: dispatch error for verb %s from %s: %v", env.Verb, conn.RemoteAddr(), err)
			return
		}

		replyBytes, err := rpcwire.Marshal(reply)
		if err != nil {
			srv.log.Infof("endorser: encoding reply for verb %s: %v", env.Verb, err)
			return
		}
		if err := transport.WriteFrame(conn, replyBytes); err != nil {
			return
		}
	}
}
