// Command splitserved runs the sprite pipeline behind an HTTP API: uploads
// and prompts go in, zipped sprite sets come out.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"spritesplit/internal/job"
	"spritesplit/internal/modelcache"
	"spritesplit/internal/server"
	"spritesplit/internal/version"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	workers := flag.Int("workers", 2, "Concurrent pipeline workers")
	queueDepth := flag.Int("queue", 32, "Maximum pending jobs")
	dataDir := flag.String("data", "data", "Root directory for uploads, work, and results")
	mattingURL := flag.String("matting", "", "Background removal service endpoint (empty: inputs must carry alpha)")
	genURL := flag.String("gen", "", "Image generation service endpoint (empty: prompt mode disabled)")
	genModel := flag.String("gen-model", "", "Model name passed to the generation service")
	retryDelay := flag.Duration("retry-delay", 10*time.Second, "Delay before the single transient retry")
	flag.Parse()

	for _, sub := range []string{"uploads", "work", "results"} {
		if err := os.MkdirAll(filepath.Join(*dataDir, sub), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", sub, err)
			os.Exit(1)
		}
	}

	store := job.NewStore()
	runner := &job.Runner{
		Store:           store,
		Models:          modelcache.New(),
		ResultDir:       filepath.Join(*dataDir, "results"),
		WorkDir:         filepath.Join(*dataDir, "work"),
		MattingEndpoint: *mattingURL,
		GenEndpoint:     *genURL,
		GenModel:        *genModel,
		Retry:           job.Policy{MaxAttempts: 2, Delay: *retryDelay},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := job.NewQueue(runner, *queueDepth)
	queue.Start(ctx, *workers)

	srv := &http.Server{
		Addr: *addr,
		Handler: (&server.Server{
			Store:     store,
			Queue:     queue,
			UploadDir: filepath.Join(*dataDir, "uploads"),
		}).Handler(),
	}

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Println(version.String())
	fmt.Printf("Listening on %s with %d workers\n", *addr, *workers)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}

	queue.Close()
	fmt.Println("Done")
}
