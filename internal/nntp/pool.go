package nntp

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Pool manages a bounded set of Conns to one backend. Connections are
// created lazily up to MaxConns and recycled through a buffered
// channel; idle connections older than idleTimeout are discarded
// rather than reused.
type Pool struct {
	mux         sync.RWMutex
	Backend     *BackendConfig
	connections chan *Conn
	maxConns    int
	activeConns int
	idleTimeout time.Duration
	closed      bool

	totalCreated int64
	totalClosed  int64
}

// NewPool constructs a Pool for backend. MaxConns must be positive.
func NewPool(backend *BackendConfig) *Pool {
	return &Pool{
		Backend:     backend,
		connections: make(chan *Conn, backend.MaxConns),
		maxConns:    backend.MaxConns,
		idleTimeout: DefaultConnExpire,
	}
}

// Lease obtains a connection from the pool, creating one if the pool
// has spare capacity, or blocking (with a 30s ceiling) if it is at
// capacity and all connections are in use. The caller must call
// Release or Discard exactly once with the returned connection.
func (p *Pool) Lease() (*Conn, error) {
	p.mux.RLock()
	closed := p.closed
	p.mux.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case c := <-p.connections:
		if p.isValid(c) {
			c.touch()
			return c, nil
		}
		p.discardLocked(c)
	default:
	}

	p.mux.Lock()
	if p.activeConns < p.maxConns {
		p.activeConns++
		p.mux.Unlock()
		c, err := p.connect()
		if err != nil {
			p.mux.Lock()
			p.activeConns--
			p.mux.Unlock()
			return nil, err
		}
		c.touch()
		p.mux.Lock()
		p.totalCreated++
		p.mux.Unlock()
		return c, nil
	}
	p.mux.Unlock()

	select {
	case c := <-p.connections:
		if p.isValid(c) {
			c.touch()
			return c, nil
		}
		p.discardLocked(c)
		c, err := p.connect()
		if err != nil {
			return nil, err
		}
		c.touch()
		p.mux.Lock()
		p.activeConns++
		p.totalCreated++
		p.mux.Unlock()
		return c, nil
	case <-time.After(30 * time.Second):
		return nil, ErrPoolTimeout
	}
}

// Release returns a healthy connection to the free list.
func (p *Pool) Release(c *Conn) {
	if c == nil {
		return
	}
	p.mux.RLock()
	closed := p.closed
	p.mux.RUnlock()
	if closed {
		p.discardLocked(c)
		return
	}
	c.touch()
	select {
	case p.connections <- c:
	default:
		log.Printf("[NNTP-POOL] free list full for %s:%d, discarding connection", p.Backend.Host, p.Backend.Port)
		p.discardLocked(c)
	}
}

// Discard closes c and removes it from the active count, for use when
// the caller observed a transport error on c.
func (p *Pool) Discard(c *Conn) {
	p.discardLocked(c)
}

func (p *Pool) discardLocked(c *Conn) {
	if c == nil {
		return
	}
	c.Close()
	p.mux.Lock()
	p.totalClosed++
	if p.activeConns > 0 {
		p.activeConns--
	}
	p.mux.Unlock()
}

func (p *Pool) connect() (*Conn, error) {
	c := NewConn(p.Backend)
	if err := c.Connect(); err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	return c, nil
}

func (p *Pool) isValid(c *Conn) bool {
	if c == nil || !c.isConnected() {
		return false
	}
	return c.idleSince() <= p.idleTimeout
}

// Close closes every pooled connection and marks the pool unusable.
func (p *Pool) Close() error {
	p.mux.Lock()
	if p.closed {
		p.mux.Unlock()
		return nil
	}
	p.closed = true
	p.mux.Unlock()

	close(p.connections)
	for c := range p.connections {
		c.Close()
		p.mux.Lock()
		p.totalClosed++
		p.mux.Unlock()
	}
	p.mux.Lock()
	p.activeConns = 0
	p.mux.Unlock()
	return nil
}

// Stats reports a snapshot of pool utilization.
type Stats struct {
	MaxConnections    int
	ActiveConnections int
	IdleConnections   int
	TotalCreated      int64
	TotalClosed       int64
	Closed            bool
}

func (p *Pool) Stats() Stats {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return Stats{
		MaxConnections:    p.maxConns,
		ActiveConnections: p.activeConns,
		IdleConnections:   len(p.connections),
		TotalCreated:      p.totalCreated,
		TotalClosed:       p.totalClosed,
		Closed:            p.closed,
	}
}

// XOver leases a connection, runs XOver on it, and returns it to the
// pool (or discards it on a transport-level failure).
func (p *Pool) XOver(group string, low, high int64) ([]OverviewLine, error) {
	c, err := p.Lease()
	if err != nil {
		return nil, err
	}
	lines, err := c.XOver(group, low, high)
	if err != nil {
		if errors.Is(err, ErrNoSuchRange) && c.isConnected() {
			p.Release(c)
		} else {
			p.Discard(c)
		}
		return nil, err
	}
	p.Release(c)
	return lines, nil
}

// StartCleanupWorker periodically evicts expired idle connections.
func (p *Pool) StartCleanupWorker(interval time.Duration) {
	if interval <= 0 {
		interval = 8 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			p.mux.RLock()
			closed := p.closed
			p.mux.RUnlock()
			if closed {
				return
			}
			p.cleanup()
		}
	}()
}

func (p *Pool) cleanup() {
	var valid []*Conn
	for {
		select {
		case c := <-p.connections:
			if p.isValid(c) {
				valid = append(valid, c)
			} else {
				p.discardLocked(c)
			}
		default:
			for _, c := range valid {
				select {
				case p.connections <- c:
				default:
					p.discardLocked(c)
				}
			}
			return
		}
	}
}
