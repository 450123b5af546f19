package store

import (
	"database/sql"
	"log"
	"math/rand"
	"strings"
	"time"
)

const (
	retryMaxAttempts = 50
	retryBaseDelay   = 10 * time.Millisecond
	retryMaxDelay    = 250 * time.Millisecond
)

// isRetryableError reports whether err looks like a transient SQLite
// lock/busy condition worth retrying rather than failing the batch.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "database is locked") ||
		strings.Contains(s, "database table is locked") ||
		strings.Contains(s, "busy") ||
		strings.Contains(s, "locked")
}

func backoff(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * retryBaseDelay
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	return delay + jitter
}

// retryableExec runs query with retry-on-lock semantics, matching the
// backoff used for PRAGMA busy_timeout overflow under heavy writer
// contention.
func retryableExec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	var err error
	for attempt := 0; attempt < retryMaxAttempts; attempt++ {
		result, err = db.Exec(query, args...)
		if !isRetryableError(err) {
			return result, err
		}
		if attempt < retryMaxAttempts-1 {
			time.Sleep(backoff(attempt))
			log.Printf("[STORE] retry %d/%d for exec: %v", attempt+1, retryMaxAttempts, err)
		}
	}
	return result, err
}

// retryableTx runs fn inside a transaction, retrying the whole
// begin/exec/commit cycle when a lock conflict is observed.
func retryableTx(db *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < retryMaxAttempts; attempt++ {
		var tx *sql.Tx
		tx, err = db.Begin()
		if err != nil {
			if !isRetryableError(err) {
				return err
			}
			time.Sleep(backoff(attempt))
			continue
		}

		if err = fn(tx); err != nil {
			tx.Rollback()
			if !isRetryableError(err) {
				return err
			}
			time.Sleep(backoff(attempt))
			log.Printf("[STORE] retry %d/%d for transaction: %v", attempt+1, retryMaxAttempts, err)
			continue
		}

		if err = tx.Commit(); err != nil {
			if !isRetryableError(err) {
				return err
			}
			time.Sleep(backoff(attempt))
			continue
		}
		return nil
	}
	return err
}
