package nntp

import "errors"

// Sentinel errors returned by the transport layer. Callers use
// errors.Is against these to classify a failure instead of parsing
// message text.
var (
	// ErrAuthFailed is returned when AUTHINFO USER/PASS is rejected.
	ErrAuthFailed = errors.New("nntp: authentication rejected")
	// ErrNoSuchRange is returned when the server reports no articles
	// in the requested range (response code 423) or an unknown group
	// (411).
	ErrNoSuchRange = errors.New("nntp: no such article range")
	// ErrProtocol covers unexpected response codes and malformed
	// multiline framing.
	ErrProtocol = errors.New("nntp: protocol violation")
	// ErrPoolClosed is returned by Pool methods after Close.
	ErrPoolClosed = errors.New("nntp: connection pool is closed")
	// ErrPoolTimeout is returned when Lease cannot obtain a connection
	// before its wait deadline.
	ErrPoolTimeout = errors.New("nntp: timed out waiting for a connection")
)
