// Package main runs the DocDesk terminal client: an interactive shell that
// keeps a persisted login session and edits doctor profiles against the API.
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/client/api"
	"github.com/atinyakov/DocDesk/internal/client/session"
	"github.com/atinyakov/DocDesk/internal/client/storage"
	"github.com/atinyakov/DocDesk/internal/config"
	"github.com/atinyakov/DocDesk/internal/logger"
)

var (
	version   string
	buildDate string
)

func main() {
	showVer := flag.Bool("version", false, "show build version and date")
	options := config.ParseClient()

	if *showVer {
		fmt.Printf("DocDesk Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	store, err := storage.NewFileStore(options.StorePath)
	if err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			zapLogger.Fatal("cannot open session store", zap.Error(err))
		}
		zapLogger.Warn("session store is corrupt, starting anonymous", zap.Error(err))
	}
	machine := session.New(store, session.WithLogger(zapLogger))

	httpClient, err := api.NewHTTPClient(options.CAFile, options.Timeout)
	if err != nil {
		zapLogger.Fatal("cannot build HTTP client", zap.Error(err))
	}
	client := api.NewClient(options.BaseURL, httpClient, machine, zapLogger)
	uploader := &api.HTTPUploader{Client: client, Target: options.UploadURL}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = session.NewContext(ctx, machine)

	sh := newShell(os.Stdout, client, uploader, zapLogger)
	if err := sh.run(ctx, os.Stdin); err != nil {
		zapLogger.Error("shell stopped", zap.Error(err))
	}
}
