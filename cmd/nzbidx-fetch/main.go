// Command nzbidx-fetch drives a single-group overview fetch against an
// NNTP backend described by an INI config file, storing the result in
// the local per-group SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nntpidx/nzbidx/internal/config"
	"github.com/nntpidx/nzbidx/internal/fetch"
	"github.com/nntpidx/nzbidx/internal/nntp"
	"github.com/nntpidx/nzbidx/internal/store"
)

const (
	exitOK          = 0
	exitConfigError = 2
	exitAuthFailure = 3
	exitPartial     = 4
	exitCancelled   = 5
)

var appVersion = "-unset-"

func main() {
	var (
		configPath = flag.String("config", "nzbidx.ini", "path to the INI configuration file")
		group      = flag.String("group", "", "newsgroup to fetch (required)")
		dataDir    = flag.String("data-dir", "./data", "directory holding one SQLite file per group")
		low        = flag.Int64("low", 0, "first article number to fetch (0 = resume from the store's max+1)")
		high       = flag.Int64("high", 0, "last article number to fetch (0 = the group's current high-water mark)")
	)
	flag.Parse()

	log.Printf("[FETCH]: nzbidx-fetch (version %s)", appVersion)

	if *group == "" {
		log.Printf("[FETCH]: -group is required")
		os.Exit(exitConfigError)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[FETCH]: config error: %v", err)
		os.Exit(exitConfigError)
	}

	backend := &nntp.BackendConfig{
		Host:           cfg.NNTP.Host,
		Port:           cfg.NNTP.Port,
		SSL:            cfg.NNTP.SSL,
		Username:       cfg.NNTP.Username,
		Password:       cfg.NNTP.Password,
		ConnectTimeout: cfg.NNTP.ConnectTimeout,
		MaxConns:       cfg.NNTP.MaxConns,
	}
	pool := nntp.NewPool(backend)
	pool.StartCleanupWorker(10 * time.Second)
	defer pool.Close()

	probe, err := pool.Lease()
	if err != nil {
		log.Printf("[FETCH]: failed to reach %s:%d: %v", backend.Host, backend.Port, err)
		os.Exit(exitAuthFailure)
	}
	groupInfo, err := probe.SelectGroup(*group)
	pool.Release(probe)
	if err != nil {
		log.Printf("[FETCH]: GROUP %s failed: %v", *group, err)
		os.Exit(exitAuthFailure)
	}
	log.Printf("[FETCH]: group %s: count=%d first=%d last=%d", *group, groupInfo.Count, groupInfo.First, groupInfo.Last)

	mgr := store.NewManager(*dataDir)
	defer mgr.Close()
	gs, err := mgr.Open(*group)
	if err != nil {
		log.Printf("[FETCH]: opening store for %s: %v", *group, err)
		os.Exit(exitConfigError)
	}

	fetchLow := *low
	if fetchLow == 0 {
		maxStored, err := gs.MaxArticleNum()
		if err != nil {
			log.Printf("[FETCH]: reading stored high-water mark: %v", err)
			os.Exit(exitConfigError)
		}
		if maxStored > 0 {
			fetchLow = maxStored + 1
		} else {
			fetchLow = groupInfo.First
		}
	}
	fetchHigh := *high
	if fetchHigh == 0 {
		fetchHigh = groupInfo.Last
	}
	if fetchHigh < fetchLow {
		log.Printf("[FETCH]: nothing to do, already at %d (remote last=%d)", fetchLow-1, groupInfo.Last)
		os.Exit(exitOK)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Printf("[FETCH]: received interrupt, cancelling after in-flight chunks drain...")
		cancel()
	}()

	progress := func(p fetch.Progress) {
		log.Printf("[FETCH]: %s: %d/%d chunks, %d rows written", *group, p.ChunksDone, p.ChunksTotal, p.RowsWritten)
	}

	result, err := fetch.FetchRange(ctx, pool, gs, *group, fetchLow, fetchHigh, cfg.Fetch.ChunkSize, cfg.Fetch.MaxWorkers, cfg.Fetch.RetryMax, progress)
	if result != nil {
		log.Printf("[FETCH]: done: %d rows, %d chunks ok, %d chunks failed, last article %d",
			result.RowsWritten, result.ChunksOK, result.ChunksFailed, result.LastArticle)
	}

	switch {
	case err != nil && ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "cancelled")
		os.Exit(exitCancelled)
	case result != nil && result.ChunksFailed > 0:
		os.Exit(exitPartial)
	case err != nil:
		log.Printf("[FETCH]: fatal: %v", err)
		os.Exit(exitConfigError)
	}
	os.Exit(exitOK)
}
