package relay

import (
	"errors"
	"fmt"
	"net"
)

// Acceptor - source of client connections.
type Acceptor interface {
	// Accept - blocks until next client connects.
	Accept() (net.Conn, PeerIdentity, error)
	// Addr - returns listen address.
	Addr() net.Addr
	// Close - stops accepting, blocked Accept returns an error.
	Close() error
}

// TCPAcceptor - Acceptor over net.Listener.
type TCPAcceptor struct {
	listener net.Listener
	identify Identifier
}

// Listen - starts to listen TCP address and returns Acceptor identifying peers by remote address.
func Listen(address string) (*TCPAcceptor, error) {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("relay.Listen: %w", err)
	}
	return NewAcceptor(l, RemoteAddrIdentity)
}

// NewAcceptor - builds Acceptor for given listener.
// RemoteAddrIdentity is used if identify is nil.
func NewAcceptor(listener net.Listener, identify Identifier) (*TCPAcceptor, error) {
	if listener == nil {
		return nil, errors.New("relay.NewAcceptor: net listener is nil")
	}
	if identify == nil {
		identify = RemoteAddrIdentity
	}
	return &TCPAcceptor{listener, identify}, nil
}

func (a *TCPAcceptor) Accept() (net.Conn, PeerIdentity, error) {
	conn, err := a.listener.Accept()
	if err != nil {
		return nil, "", err
	}
	id := a.identify(conn)
	if id == "" {
		conn.Close()
		return nil, "", ErrAnonymousPeer
	}
	return conn, id, nil
}

func (a *TCPAcceptor) Addr() net.Addr {
	return a.listener.Addr()
}

func (a *TCPAcceptor) Close() error {
	return a.listener.Close()
}
