package relay

import "errors"

var (
	// ErrServerClosed - returns by Serve after Shutdown was called.
	ErrServerClosed = errors.New("relay.Server: closed")

	// ErrAnonymousPeer - returns by Acceptor when accepted connection has no identity.
	// Such connection is already closed.
	ErrAnonymousPeer = errors.New("relay.Acceptor: peer has no identity")
)
