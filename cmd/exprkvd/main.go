// Command exprkvd boots the storage engine, its TCP wire listener, and its
// admin HTTP surface, then waits for a shutdown signal: env-driven config, a
// banner, background listeners started before a blocking signal wait, then
// a graceful, timeout-bounded shutdown and a final stats dump.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/exprkv/exprkv/internal/adminhttp"
	"github.com/exprkv/exprkv/internal/config"
	"github.com/exprkv/exprkv/internal/engine"
	"github.com/exprkv/exprkv/internal/wire"
)

const serviceName = "exprkv"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	printBanner(cfg)

	eng := engine.NewServer(engine.Limits{
		MaxKeySize:     cfg.MaxKeySize,
		MaxValueSize:   cfg.MaxValueSize,
		MaxItemTTL:     cfg.MaxItemTTL,
		MaxMemBytes:    cfg.MaxMemBytes,
		ComprThreshold: cfg.ComprThresh,
	}, time.Now().Unix())

	// The engine is single-threaded cooperative: every dispatch and every
	// cron tick must run under this lock so no two ever interleave.
	var mu chan struct{} = make(chan struct{}, 1)
	mu <- struct{}{}
	lock := func() { <-mu }
	unlock := func() { mu <- struct{}{} }

	cronCtx, cronCancel := context.WithCancel(context.Background())
	cron := engine.NewCron(cfg.CronInterval)
	go cron.Run(cronCtx, func(now int64) {
		lock()
		eng.Tick(now)
		unlock()
	})

	listener, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		log.Fatalf("tcp listen on %s: %v", cfg.TCPAddr, err)
	}
	log.Printf("[tcp] listening on %s", cfg.TCPAddr)

	maxFrame := cfg.MaxValueSize + cfg.MaxKeySize + 64
	go acceptLoop(listener, eng, maxFrame, lock, unlock)

	admin := adminhttp.NewServer(eng)
	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: admin.Handler(),
	}
	go func() {
		log.Printf("[http] listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	log.Println("exprkv is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("signal received: %v, shutting down", sig)

	cronCancel()
	listener.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	printFinalStats(eng)
	log.Println("shutdown complete")
}

// acceptLoop is the host accept loop, kept out of the engine core: each
// connection is tagged with a random identity for logging/troubleshooting
// and served on its own goroutine, but every call into eng is still
// serialized through lock/unlock so dispatch remains single-threaded from
// the engine's point of view.
func acceptLoop(listener net.Listener, eng *engine.Server, maxFrame int, lock, unlock func()) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		connID, err := uuid.NewRandom()
		if err != nil {
			connID = uuid.Nil
		}
		go serveConn(conn, connID, eng, maxFrame, lock, unlock)
	}
}

func serveConn(conn net.Conn, connID uuid.UUID, eng *engine.Server, maxFrame int, lock, unlock func()) {
	defer conn.Close()

	lock()
	eng.OnConnect()
	unlock()
	defer func() {
		lock()
		eng.OnDisconnect()
		unlock()
	}()

	sink := wire.NewConn(conn)
	for {
		op, payload, err := wire.ReadRequest(conn, maxFrame)
		if err != nil {
			return
		}

		lock()
		dispatchErr := eng.Dispatch(op, payload, sink)
		unlock()

		if dispatchErr != nil {
			log.Printf("[tcp] conn %s: %v", connID, dispatchErr)
			return
		}
		if sink.CloseRequested() {
			return
		}
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf(`
========================================
  %s
========================================
  Go:         %s
  CPU:        %d cores
  Platform:   %s/%s

  TCP:        %s
  HTTP:       %s
========================================
`,
		serviceName,
		runtime.Version(), runtime.NumCPU(), runtime.GOOS, runtime.GOARCH,
		cfg.TCPAddr, cfg.HTTPAddr,
	)
}

func printFinalStats(eng *engine.Server) {
	snap := eng.Snapshot()
	log.Printf("final stats: items=%d compressed=%d requests=%d connections=%d mem_used=%d mem_peak=%d",
		snap.NItems, snap.NCompressed, snap.Requests, snap.Connections, snap.MemUsed, snap.MemPeak)
}
