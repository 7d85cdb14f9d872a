package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/metrics"
)

// Listen serves requests and blocks forever, until OS signals shut down the
// process. The main listener serves the stash API, the admin listener serves
// pprof, and when Prometheus metrics are enabled a third listener serves the
// scrape endpoint.
func Listen(cfg config.Configuration, handler http.Handler, appMetrics *metrics.Metrics) {
	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, syscall.SIGTERM, syscall.SIGINT)

	// Rig up each server so that it listens on a channel for signals. These
	// use different channels for each server because a shared channel would
	// only alert one consumer (whichever one happens to read it first).
	//
	// After a server has finished shutting down, it sends a signal in through
	// the "done" channel.
	stopMain := make(chan os.Signal)
	stopAdmin := make(chan os.Signal)
	stopPrometheus := make(chan os.Signal)
	done := make(chan struct{})

	mainServer := newMainServer(cfg, handler)
	adminServer := newAdminServer(cfg)
	go shutdownAfterSignals(mainServer, stopMain, done)
	go shutdownAfterSignals(adminServer, stopAdmin, done)

	mainListener, err := newListener(mainServer.Addr, appMetrics)
	if err != nil {
		log.Errorf("Error listening for TCP connections on %s: %v", mainServer.Addr, err)
		return
	}
	adminListener, err := newListener(adminServer.Addr, nil)
	if err != nil {
		log.Errorf("Error listening for TCP connections on %s: %v", adminServer.Addr, err)
		return
	}
	go runServer(mainServer, "Main", mainListener)
	go runServer(adminServer, "Admin", adminListener)

	stoppers := []chan<- os.Signal{stopMain, stopAdmin}
	if cfg.Metrics.Prometheus.Enabled {
		prometheusServer := newPrometheusServer(&cfg, appMetrics)
		go shutdownAfterSignals(prometheusServer, stopPrometheus, done)

		prometheusListener, err := newListener(prometheusServer.Addr, nil)
		if err != nil {
			log.Errorf("Error listening for TCP connections on %s: %v", prometheusServer.Addr, err)
			return
		}
		go runServer(prometheusServer, "Prometheus", prometheusListener)
		stoppers = append(stoppers, stopPrometheus)
	}

	// Block the thread. When the OS sends a shutdown signal, alert each of
	// the servers and wait for all of them to finish shutting down.
	wait(stopSignals, done, stoppers...)
}

func newAdminServer(cfg config.Configuration) *http.Server {
	// The default mux carries the pprof routes registered by the
	// net/http/pprof import in main.
	return &http.Server{
		Addr: ":" + strconv.Itoa(cfg.AdminPort),
	}
}

func newMainServer(cfg config.Configuration, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func runServer(server *http.Server, name string, listener net.Listener) {
	log.Infof("%s server starting on: %s", name, server.Addr)
	err := server.Serve(listener)
	log.Errorf("%s server quit with error: %v", name, err)
}

func newListener(address string, appMetrics *metrics.Metrics) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("Error listening for TCP connections on %s: %v", address, err)
	}

	// This cast is in Go's core libs as Server.ListenAndServe(), so it
	// _should_ be safe, but just in case it changes in a future version...
	if casted, ok := ln.(*net.TCPListener); ok {
		ln = &tcpKeepAliveListener{casted}
	} else {
		log.Warn(`net.Listen("tcp", addr) didn't return a TCPListener. Things will probably work fine... but this should be investigated.`)
	}

	if appMetrics != nil {
		ln = &monitorableListener{ln, appMetrics}
	}

	return ln, nil
}

func wait(inbound <-chan os.Signal, done <-chan struct{}, outbound ...chan<- os.Signal) {
	sig := <-inbound

	for i := 0; i < len(outbound); i++ {
		go sendSignal(outbound[i], sig)
	}

	for i := 0; i < len(outbound); i++ {
		<-done
	}
}

func shutdownAfterSignals(server *http.Server, stopper <-chan os.Signal, done chan<- struct{}) {
	sig := <-stopper

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var s struct{}
	log.Infof("Stopping %s because of signal: %s", server.Addr, sig.String())
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Failed to shutdown %s: %v", server.Addr, err)
	}
	done <- s
}

func sendSignal(to chan<- os.Signal, sig os.Signal) {
	to <- sig
}
