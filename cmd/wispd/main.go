// Command wispd runs the in-memory key/value store as a standalone TCP
// daemon speaking the RESP-array protocol described in SPEC_FULL.md.
package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/wispkv/wisp/internal/server"
	"github.com/wispkv/wisp/internal/store"
)

func main() {
	var (
		network    string
		addr       string
		multicore  bool
		reusePort  bool
		logFile    string
		sweepEvery time.Duration
		pprofDebug bool
		pprofAddr  string
	)

	flag.StringVar(&network, "network", "tcp", "listener network")
	flag.StringVar(&addr, "addr", "0.0.0.0:6379", "listen address")
	flag.BoolVar(&multicore, "multicore", true, "enable multicore event loops")
	flag.BoolVar(&reusePort, "reusePort", false, "enable SO_REUSEPORT")
	flag.StringVar(&logFile, "logfile", "", "rotate logs to this file instead of stderr")
	flag.DurationVar(&sweepEvery, "sweep-interval", 30*time.Second, "background expiry-sweep interval; 0 disables it")
	flag.BoolVar(&pprofDebug, "pprofDebug", false, "expose pprof on pprofAddr")
	flag.StringVar(&pprofAddr, "pprofAddr", ":8888", "pprof listen address")
	flag.Parse()

	logger := newLogger(logFile)
	defer logger.Sync() //nolint:errcheck

	if pprofDebug {
		go func() {
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				logger.Warn("pprof listener stopped", zap.Error(err))
			}
		}()
	}

	db := store.New()
	srv := server.New(db, logger)

	stopSweep := make(chan struct{})
	if sweepEvery > 0 {
		pool, err := ants.NewPool(1, ants.WithPreAlloc(true))
		if err != nil {
			logger.Fatal("failed to start sweep pool", zap.Error(err))
		}
		defer pool.Release()
		go runSweeper(db, pool, logger, sweepEvery, stopSweep)
	}

	protoAddr := fmt.Sprintf("%s://%s", network, addr)
	logger.Info("starting wisp server", zap.String("addr", protoAddr), zap.Bool("multicore", multicore))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stopSweep)
		if err := srv.Close(); err != nil {
			logger.Warn("error while stopping server", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(protoAddr, srv, multicore, reusePort); err != nil {
		logger.Fatal("server exited with error", zap.Error(multierr.Append(err, logger.Sync())))
	}
}

// runSweeper periodically evicts keys whose deadline has passed. This
// is a pure memory-reclamation optimization: spec.md §9 permits an
// optional sweeper as long as it never changes what a client can
// observe, and it doesn't — every read path already treats an
// expired-but-uncollected key as absent.
//
// Each tick is handed to pool rather than run inline. The pool has a
// single worker, so at most one sweep runs at a time: when a sweep takes
// longer than interval (a very large keyspace), the next Submit waits in
// this loop until the worker is free, and the ticker drops the ticks it
// cannot deliver in the meantime.
func runSweeper(db *store.Store, pool *ants.Pool, log *zap.Logger, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if err := pool.Submit(func() { db.Sweep(now) }); err != nil {
				log.Warn("sweep submission dropped", zap.Error(err))
			}
		}
	}
}

func newLogger(logFile string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if logFile == "" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig = encoderCfg
		logger, err := cfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, zap.InfoLevel)
	return zap.New(core)
}
