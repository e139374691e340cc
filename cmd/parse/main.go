package main

// Parse résumé files from disk and print one JSON result per line:
//   go run ./cmd/parse -user local -concurrency 4 cv1.pdf cv2.docx scan.png

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"resume-ingest/internal/bootstrap"
	"resume-ingest/internal/parsing"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/storage/db"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
)

const defaultConcurrency = 4

type parser interface {
	Parse(ctx context.Context, req parsing.Request, progress parsing.ProgressFunc) parsing.Response
}

type fileResult struct {
	File string `json:"file"`
	parsing.Response
}

func main() {
	userID := flag.String("user", "local", "user id charged for AI structuring")
	concurrency := flag.Int("concurrency", defaultConcurrency, "files parsed in parallel")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: parse [-user id] [-concurrency n] file...")
		os.Exit(2)
	}

	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultBatchOptions()))
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer sqlDB.Close()
	}

	app, err := bootstrap.BuildPipeline(ctx, cfg, sqlDB)
	if err != nil {
		log.Fatalf("bootstrap pipeline: %v", err)
	}

	if err := run(ctx, app.Parser, *userID, flag.Args(), *concurrency, os.Stdout); err != nil {
		log.Fatalf("parse: %v", err)
	}
}

// run parses every path and writes results in input order. Per-file failures
// are reported in the output; only read and write errors abort the batch.
func run(ctx context.Context, p parser, userID string, paths []string, concurrency int, w io.Writer) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			resp := p.Parse(gctx, parsing.Request{
				UserID: userID,
				File: &parsing.File{
					Name:     util.CleanFileName(path),
					MimeType: mimetype.Detect(data).String(),
					Size:     int64(len(data)),
					Data:     data,
				},
			}, progressLogger(path))
			results[i] = fileResult{File: path, Response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

func progressLogger(path string) parsing.ProgressFunc {
	return func(state parsing.State, progress int) {
		telemetry.Debug("parse.progress", map[string]any{
			"file":     path,
			"state":    string(state),
			"progress": progress,
		})
	}
}
