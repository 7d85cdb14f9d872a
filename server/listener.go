package server

import (
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/metrics"
)

// monitorableListener tracks any opened connections in the metrics.
type monitorableListener struct {
	net.Listener
	metrics *metrics.Metrics
}

// monitorableConnection tracks any closed connections in the metrics.
type monitorableConnection struct {
	net.Conn
	metrics *metrics.Metrics
}

func (l *monitorableConnection) Close() error {
	err := l.Conn.Close()
	if err == nil {
		l.metrics.RecordConnectionClosed()
	} else {
		log.Errorf("Error closing connection: %v", err)
		l.metrics.RecordCloseConnectionErrors()
	}
	return err
}

func (ln *monitorableListener) Accept() (c net.Conn, err error) {
	tc, err := ln.Listener.Accept()
	if err != nil {
		log.Errorf("Error accepting connection: %v", err)
		ln.metrics.RecordAcceptConnectionErrors()
		return tc, err
	}
	ln.metrics.RecordConnectionOpen()
	return &monitorableConnection{
		tc,
		ln.metrics,
	}, nil
}

// tcpKeepAliveListener mirrors the unexported listener net/http uses for
// Server.ListenAndServe, so connections accepted here behave the same way.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
