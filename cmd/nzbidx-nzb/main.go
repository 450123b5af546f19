// Command nzbidx-nzb queries a group's stored overview data and
// assembles matching multipart posts into .nzb documents on disk.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/nntpidx/nzbidx/internal/config"
	"github.com/nntpidx/nzbidx/internal/nzb"
	"github.com/nntpidx/nzbidx/internal/store"
)

const (
	exitOK          = 0
	exitConfigError = 2
)

var appVersion = "-unset-"

func main() {
	var (
		configPath = flag.String("config", "nzbidx.ini", "path to the INI configuration file")
		group      = flag.String("group", "", "newsgroup to assemble from (required)")
		dataDir    = flag.String("data-dir", "./data", "directory holding one SQLite file per group")
	)
	flag.Parse()

	log.Printf("[NZB]: nzbidx-nzb (version %s)", appVersion)

	if *group == "" {
		log.Printf("[NZB]: -group is required")
		os.Exit(exitConfigError)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[NZB]: config error: %v", err)
		os.Exit(exitConfigError)
	}

	mgr := store.NewManager(*dataDir)
	defer mgr.Close()
	gs, err := mgr.Open(*group)
	if err != nil {
		log.Printf("[NZB]: opening store for %s: %v", *group, err)
		os.Exit(exitConfigError)
	}

	rows, err := gs.Query(store.Filter{
		SubjectLike: cfg.Filter.SubjectLike,
		NotSubject:  cfg.Filter.NotSubject,
		PosterLike:  cfg.Filter.PosterLike,
		DateFrom:    cfg.Filter.DateFrom,
		DateTo:      cfg.Filter.DateTo,
	})
	if err != nil {
		log.Printf("[NZB]: query failed: %v", err)
		os.Exit(exitConfigError)
	}
	log.Printf("[NZB]: %d rows matched filter in group %s", len(rows), *group)

	docs, err := nzb.Assemble(rows, nzb.Options{
		Group:             *group,
		IncludeIncomplete: cfg.Output.IncludeIncomplete,
		GroupByCollection: cfg.Output.GroupByCollection,
	})
	if err != nil {
		log.Printf("[NZB]: assembly failed: %v", err)
		os.Exit(exitConfigError)
	}
	log.Printf("[NZB]: assembled %d document(s)", len(docs))

	if err := os.MkdirAll(cfg.Output.Path, 0o755); err != nil {
		log.Printf("[NZB]: creating output dir %s: %v", cfg.Output.Path, err)
		os.Exit(exitConfigError)
	}

	names := nzb.UniqueFilenames(docs)
	for _, doc := range docs {
		outPath := filepath.Join(cfg.Output.Path, names[nzb.DocumentKey(doc)])
		f, err := os.Create(outPath)
		if err != nil {
			log.Printf("[NZB]: creating %s: %v", outPath, err)
			os.Exit(exitConfigError)
		}
		writeErr := nzb.Write(f, doc)
		closeErr := f.Close()
		if writeErr != nil {
			log.Printf("[NZB]: writing %s: %v", outPath, writeErr)
			os.Exit(exitConfigError)
		}
		if closeErr != nil {
			log.Printf("[NZB]: closing %s: %v", outPath, closeErr)
			os.Exit(exitConfigError)
		}
		log.Printf("[NZB]: wrote %s (%d files)", outPath, len(doc.Files))
	}

	os.Exit(exitOK)
}
