package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeTempConfig(t, `
[nntp]
host = news.example.com
port = 563
ssl = true
max_conns = 8

[fetch]
chunk_size = 5000
max_workers = 4

[filter]
subject_like = movie

[output]
path = /tmp/out
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NNTP.Host != "news.example.com" || cfg.NNTP.Port != 563 || !cfg.NNTP.SSL {
		t.Fatalf("unexpected nntp config: %+v", cfg.NNTP)
	}
	if cfg.Fetch.ChunkSize != 5000 || cfg.Fetch.MaxWorkers != 4 {
		t.Fatalf("unexpected fetch config: %+v", cfg.Fetch)
	}
	if cfg.Fetch.RetryMax != 3 {
		t.Fatalf("expected default retry_max preserved, got %d", cfg.Fetch.RetryMax)
	}
	if cfg.Filter.SubjectLike != "movie" {
		t.Fatalf("unexpected filter: %+v", cfg.Filter)
	}
	if cfg.Output.Path != "/tmp/out" {
		t.Fatalf("unexpected output: %+v", cfg.Output)
	}
}

func TestLoadParsesDateRangeAndGroupByCollection(t *testing.T) {
	path := writeTempConfig(t, `
[nntp]
host = news.example.com

[filter]
date_from = 2024-01-01
date_to = 2024-01-31

[output]
path = /tmp/out
group_by_collection = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Filter.DateFrom == 0 || cfg.Filter.DateTo == 0 {
		t.Fatalf("expected date_from/date_to to be populated, got %+v", cfg.Filter)
	}
	if cfg.Filter.DateFrom >= cfg.Filter.DateTo {
		t.Fatalf("expected date_from before date_to, got %d vs %d", cfg.Filter.DateFrom, cfg.Filter.DateTo)
	}
	if !cfg.Output.GroupByCollection {
		t.Fatalf("expected group_by_collection to be true")
	}
}

func TestLoadRejectsInvertedDateRange(t *testing.T) {
	path := writeTempConfig(t, `
[nntp]
host = news.example.com

[filter]
date_from = 2024-02-01
date_to = 2024-01-01
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for date_from after date_to")
	}
}

func TestLoadRejectsMissingHost(t *testing.T) {
	path := writeTempConfig(t, "[fetch]\nmax_workers = 4\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing host")
	}
}

func TestLoadRejectsOutOfRangeWorkers(t *testing.T) {
	path := writeTempConfig(t, "[nntp]\nhost = news.example.com\n\n[fetch]\nmax_workers = 999\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for out-of-range max_workers")
	}
}
