package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/dataset"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/metrics"
	"call-compliance-go/internal/pipeline"
	"call-compliance-go/internal/processor"
	"call-compliance-go/internal/sink"
	"call-compliance-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	cfg, err := config.Load()
	log := logger.NewWithOptions(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel})
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.WithField("service", "call-compliance-go").Info("starting service")

	m := metrics.New()
	sinks, store := openSinks(cfg, log)
	proc := processor.New(processor.Config{
		Engine:  pipeline.New(pipeline.Options{SafeExceptionWindow: cfg.SafeExceptionWindow}),
		Fetcher: transcription.New(cfg.TranscribeURL, transcription.WithMock(cfg.MockTranscribe), transcription.WithLogger(log)),
		Sink:    sinks,
		Metrics: m,
		Logger:  log,
		Timeout: cfg.CallTimeout(),
		Workers: cfg.Workers,
	})
	defer proc.Close()

	s := &server{cfg: cfg, proc: proc, store: store, metrics: m, log: log, load: dataset.Load}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}

// openSinks wires the configured result sinks. A sink that cannot be opened
// is logged and skipped so evaluation keeps working.
func openSinks(cfg config.Config, log *logger.Logger) (sink.Multi, *sink.SQLiteSink) {
	var (
		out   sink.Multi
		store *sink.SQLiteSink
	)
	if cfg.AMQPURL != "" {
		a, err := sink.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue, log)
		if err != nil {
			log.WithError(err).Warn("AMQP sink disabled")
		} else {
			out = append(out, a)
			log.WithField("queue", cfg.AMQPQueue).Info("publishing results to AMQP")
		}
	}
	if cfg.SQLitePath != "" {
		db, err := sink.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("SQLite sink disabled")
		} else {
			out = append(out, db)
			store = db
			log.WithField("path", cfg.SQLitePath).Info("storing results in SQLite")
		}
	}
	return out, store
}
