// Package config loads the INI configuration file driving a fetch or
// NZB-assembly run: which NNTP backend to use, how aggressively to
// fetch, and what to filter/emit.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// ErrConfig is returned for any malformed or out-of-range setting.
var ErrConfig = errors.New("config: invalid configuration")

// NNTP holds connection settings for one backend server.
type NNTP struct {
	Host           string
	Port           int
	SSL            bool
	Username       string
	Password       string
	MaxConns       int
	ConnectTimeout time.Duration
}

// Fetch holds the overview-fetch tuning knobs.
type Fetch struct {
	ChunkSize  int64
	MaxWorkers int
	RetryMax   int
}

// Filter narrows which articles a query/assembly run considers.
type Filter struct {
	SubjectLike string
	NotSubject  string
	PosterLike  string
	DateFrom    int64 // unix seconds, inclusive; 0 = unbounded
	DateTo      int64 // unix seconds, inclusive; 0 = unbounded
}

// Output controls where and how NZB documents are written.
type Output struct {
	Path              string
	IncludeIncomplete bool
	GroupByCollection bool // emit one document per (poster, collection) instead of one combined document
}

// Config is the fully resolved configuration for one run.
type Config struct {
	NNTP   NNTP
	Fetch  Fetch
	Filter Filter
	Output Output
}

// NewDefault returns the baseline configuration used when a setting is
// absent from the INI file.
func NewDefault() *Config {
	return &Config{
		NNTP: NNTP{
			Port:           119,
			MaxConns:       4,
			ConnectTimeout: 15 * time.Second,
		},
		Fetch: Fetch{
			ChunkSize:  100000,
			MaxWorkers: 10,
			RetryMax:   3,
		},
		Output: Output{
			Path: "./out",
		},
	}
}

// Load reads path as an INI file with [nntp], [fetch], [filter] and
// [output] sections, overlaying onto NewDefault, then validates the
// result.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	if sec := f.Section("nntp"); sec != nil {
		cfg.NNTP.Host = sec.Key("host").MustString(cfg.NNTP.Host)
		cfg.NNTP.Port = sec.Key("port").MustInt(cfg.NNTP.Port)
		cfg.NNTP.SSL = sec.Key("ssl").MustBool(cfg.NNTP.SSL)
		cfg.NNTP.Username = sec.Key("username").MustString(cfg.NNTP.Username)
		cfg.NNTP.Password = sec.Key("password").MustString(cfg.NNTP.Password)
		cfg.NNTP.MaxConns = sec.Key("max_conns").MustInt(cfg.NNTP.MaxConns)
		if secs := sec.Key("connect_timeout_seconds").MustInt(int(cfg.NNTP.ConnectTimeout / time.Second)); secs > 0 {
			cfg.NNTP.ConnectTimeout = time.Duration(secs) * time.Second
		}
	}

	if sec := f.Section("fetch"); sec != nil {
		cfg.Fetch.ChunkSize = sec.Key("chunk_size").MustInt64(cfg.Fetch.ChunkSize)
		cfg.Fetch.MaxWorkers = sec.Key("max_workers").MustInt(cfg.Fetch.MaxWorkers)
		cfg.Fetch.RetryMax = sec.Key("retry_max").MustInt(cfg.Fetch.RetryMax)
	}

	if sec := f.Section("filter"); sec != nil {
		cfg.Filter.SubjectLike = sec.Key("subject_like").String()
		cfg.Filter.NotSubject = sec.Key("not_subject").String()
		cfg.Filter.PosterLike = sec.Key("poster_like").String()
		if raw := sec.Key("date_from").String(); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, fmt.Errorf("%w: [filter] date_from: %v", ErrConfig, err)
			}
			cfg.Filter.DateFrom = t.Unix()
		}
		if raw := sec.Key("date_to").String(); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, fmt.Errorf("%w: [filter] date_to: %v", ErrConfig, err)
			}
			// date_to is inclusive: push to the last instant of that day.
			cfg.Filter.DateTo = t.Add(24*time.Hour - time.Second).Unix()
		}
	}

	if sec := f.Section("output"); sec != nil {
		cfg.Output.Path = sec.Key("path").MustString(cfg.Output.Path)
		cfg.Output.IncludeIncomplete = sec.Key("include_incomplete").MustBool(cfg.Output.IncludeIncomplete)
		cfg.Output.GroupByCollection = sec.Key("group_by_collection").MustBool(cfg.Output.GroupByCollection)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the ranges this system depends on to avoid
// resource exhaustion (too many connections, zero-size chunks).
func (c *Config) Validate() error {
	if c.NNTP.Host == "" {
		return fmt.Errorf("%w: [nntp] host is required", ErrConfig)
	}
	if c.NNTP.MaxConns < 1 || c.NNTP.MaxConns > 64 {
		return fmt.Errorf("%w: [nntp] max_conns must be between 1 and 64, got %d", ErrConfig, c.NNTP.MaxConns)
	}
	if c.Fetch.ChunkSize < 1 {
		return fmt.Errorf("%w: [fetch] chunk_size must be positive, got %d", ErrConfig, c.Fetch.ChunkSize)
	}
	if c.Fetch.MaxWorkers < 1 || c.Fetch.MaxWorkers > 64 {
		return fmt.Errorf("%w: [fetch] max_workers must be between 1 and 64, got %d", ErrConfig, c.Fetch.MaxWorkers)
	}
	if c.Filter.DateFrom != 0 && c.Filter.DateTo != 0 && c.Filter.DateFrom > c.Filter.DateTo {
		return fmt.Errorf("%w: [filter] date_from must not be after date_to", ErrConfig)
	}
	return nil
}
