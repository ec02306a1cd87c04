/*
main.go - Application entry point

PURPOSE:
  Wires the process together: configuration, logging, the shared store
  connection, the crawl processor, and the read-only HTTP API. The
  network crawler itself is an external collaborator; it drives
  crawl.Processor with fetch cycles while this process serves the
  persisted results.

STARTUP SEQUENCE:
  1. Load configuration (env / .env)
  2. Acquire the shared store connection
  3. Start the HTTP API
  4. On SIGINT/SIGTERM: drain requests, release the connection

FLAGS:
  -port  HTTP server port (overrides API_PORT)
  -db    SQLite database path (overrides DATABASE_PATH; ":memory:" works)
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diatche/airbnb-scraper/api"
	"github.com/diatche/airbnb-scraper/config"
	"github.com/diatche/airbnb-scraper/item"
	"github.com/diatche/airbnb-scraper/logger"
	"github.com/diatche/airbnb-scraper/store/sqlite"
)

func main() {
	cfg := config.Load()

	port := flag.Int("port", cfg.APIPort, "HTTP server port")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	flag.Parse()

	log := logger.New()
	mainLog := log.WithComponent("main")

	// One physical connection, shared by every subsystem through the
	// depth-counted handle.
	conn := item.NewConn(func() (item.Backend, error) {
		return sqlite.New(*dbPath)
	})
	store, err := conn.Acquire()
	if err != nil {
		mainLog.WithFields(logger.Fields{"error": err.Error()}).Fatal("failed to open store")
	}
	defer func() {
		if err := conn.Release(); err != nil {
			mainLog.WithFields(logger.Fields{"error": err.Error()}).Error("failed to close store")
		}
	}()

	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		mainLog.WithFields(logger.Fields{"port": *port, "db": *dbPath}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mainLog.WithFields(logger.Fields{"error": err.Error()}).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		mainLog.WithFields(logger.Fields{"error": err.Error()}).Fatal("forced shutdown")
	}
	mainLog.Info("server stopped")
}
