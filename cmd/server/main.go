package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/api"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/config"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/lifecycle"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/store"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/worker"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/ytdlp"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := ytdlp.CheckDependencies(cfg.YTDLPPath); err != nil {
		log.Printf("dependency check: %v (downloads will fail until resolved)", err)
	}

	if err := os.MkdirAll(cfg.DownloadRoot, 0o755); err != nil {
		log.Fatalf("create download root: %v", err)
	}

	st := store.New()
	engine := ytdlp.NewClient(cfg.YTDLPPath, cfg.InspectTimeout)
	runner := worker.NewRunner(cfg, st, engine, ytdlp.SelectFormat)
	sweeper := lifecycle.NewSweeper(cfg.DownloadRoot, cfg.ClientTTL, st)

	// The sweep also runs opportunistically on the request path; the
	// schedule just bounds staleness when traffic is idle.
	cr := cron.New()
	if _, err := cr.AddFunc(fmt.Sprintf("@every %s", cfg.SweepInterval), sweeper.Sweep); err != nil {
		log.Fatalf("schedule sweep: %v", err)
	}
	cr.Start()
	defer cr.Stop()

	server := api.New(cfg, st, runner, engine, sweeper)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Router(),
	}

	log.Printf("server listening on :%s (download root %s, client ttl %s)", cfg.HTTPPort, cfg.DownloadRoot, cfg.ClientTTL)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
}
