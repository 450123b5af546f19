// Package fetch drives a parallel XOVER sweep over an article range:
// N worker goroutines pull chunks through the connection pool while a
// single writer goroutine serializes every batch into the store, so
// SQLite only ever sees one writer regardless of fetch concurrency.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/nntpidx/nzbidx/internal/nntp"
	"github.com/nntpidx/nzbidx/internal/overview"
	"github.com/nntpidx/nzbidx/internal/store"
)

// ErrCancelled is returned by FetchRange when ctx is cancelled before
// the range completes.
var ErrCancelled = errors.New("fetch: cancelled")

const (
	writerQueueCapacity = 64

	defaultRetryAttempts = 3
	retryBaseTime        = 500 * time.Millisecond
	retryFactor          = 2
)

// Progress is reported after every chunk the writer has handled,
// whether it was stored, skipped as an empty range, or failed.
type Progress struct {
	ChunksDone  int
	ChunksTotal int
	RowsWritten int
}

// ProgressFunc receives a Progress snapshot after each completed chunk.
type ProgressFunc func(Progress)

// Result summarizes one FetchRange call.
type Result struct {
	RowsWritten  int
	ChunksFailed int
	ChunksOK     int
	LastArticle  int64
}

type chunk struct {
	low, high int64
}

type chunkResult struct {
	chunk chunk
	rows  []overview.Row
	err   error
}

// FetchRange fetches overview data for [low, high] in group from pool
// using up to maxWorkers concurrent XOVER calls of chunkSize articles
// each, writing every completed chunk through gs on a single writer
// goroutine. It returns once every chunk has either succeeded or
// exhausted its retries, or ctx is cancelled.
func FetchRange(ctx context.Context, pool *nntp.Pool, gs *store.GroupStore, group string, low, high int64, chunkSize int64, maxWorkers int, retryMax int, progress ProgressFunc) (*Result, error) {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if retryMax < 1 {
		retryMax = defaultRetryAttempts
	}

	chunks := partitionRange(low, high, chunkSize)
	if len(chunks) == 0 {
		return &Result{}, nil
	}

	chunkCh := make(chan chunk, len(chunks))
	resultCh := make(chan chunkResult, writerQueueCapacity)

	for _, c := range chunks {
		chunkCh <- c
	}
	close(chunkCh)

	var workersWG sync.WaitGroup
	workersWG.Add(maxWorkers)
	for w := 0; w < maxWorkers; w++ {
		go func(worker int) {
			defer workersWG.Done()
			for c := range chunkCh {
				select {
				case <-ctx.Done():
					resultCh <- chunkResult{chunk: c, err: ErrCancelled}
					continue
				default:
				}
				rows, err := fetchChunkWithRetry(ctx, pool, group, c, retryMax)
				resultCh <- chunkResult{chunk: c, rows: rows, err: err}
			}
		}(w)
	}

	go func() {
		workersWG.Wait()
		close(resultCh)
	}()

	result := &Result{}
	done := 0
	for res := range resultCh {
		done++
		if res.err != nil {
			if errors.Is(res.err, nntp.ErrNoSuchRange) {
				log.Printf("[FETCH] group %s chunk %d-%d: no such range, skipping", group, res.chunk.low, res.chunk.high)
			} else {
				log.Printf("[FETCH] group %s chunk %d-%d failed: %v", group, res.chunk.low, res.chunk.high, res.err)
				result.ChunksFailed++
			}
		} else {
			if len(res.rows) > 0 {
				if err := gs.UpsertBatch(res.rows); err != nil {
					log.Printf("[FETCH] group %s chunk %d-%d store failed: %v", group, res.chunk.low, res.chunk.high, err)
					result.ChunksFailed++
				} else {
					result.ChunksOK++
					result.RowsWritten += len(res.rows)
					if res.chunk.high > result.LastArticle {
						result.LastArticle = res.chunk.high
					}
				}
			} else {
				result.ChunksOK++
			}
		}
		if progress != nil {
			progress(Progress{ChunksDone: done, ChunksTotal: len(chunks), RowsWritten: result.RowsWritten})
		}
	}

	if ctx.Err() != nil {
		return result, ErrCancelled
	}
	return result, nil
}

func fetchChunkWithRetry(ctx context.Context, pool *nntp.Pool, group string, c chunk, retryMax int) ([]overview.Row, error) {
	var lastErr error
	for attempt := 0; attempt < retryMax; attempt++ {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		lines, err := pool.XOver(group, c.low, c.high)
		if err == nil {
			rows := make([]overview.Row, 0, len(lines))
			for _, line := range lines {
				row, ok := overview.Parse(line)
				if !ok {
					continue
				}
				rows = append(rows, row)
			}
			return rows, nil
		}
		lastErr = err
		if errors.Is(err, nntp.ErrNoSuchRange) {
			return nil, err
		}
		if attempt < retryMax-1 {
			delay := time.Duration(float64(retryBaseTime) * pow(retryFactor, attempt))
			spread := int64(delay) / 4
			jitter := time.Duration(rand.Int63n(2*spread+1) - spread)
			select {
			case <-time.After(delay + jitter):
			case <-ctx.Done():
				return nil, ErrCancelled
			}
		}
	}
	return nil, fmt.Errorf("chunk %d-%d: exhausted retries: %w", c.low, c.high, lastErr)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func partitionRange(low, high, chunkSize int64) []chunk {
	if high < low {
		return nil
	}
	var chunks []chunk
	for start := low; start <= high; start += chunkSize {
		end := start + chunkSize - 1
		if end > high {
			end = high
		}
		chunks = append(chunks, chunk{low: start, high: end})
	}
	return chunks
}
