package relay

import "net"

// PeerIdentity - identifies origin of a connection. Sessions use it to drop their own messages,
// so two live sessions must never share the same identity.
type PeerIdentity string

// Identifier - produces identity for accepted connection. Empty identity means the connection
// can not be identified and must be rejected.
type Identifier func(net.Conn) PeerIdentity

// RemoteAddrIdentity - default Identifier based on the remote network address,
// which is unique among live TCP connections.
func RemoteAddrIdentity(c net.Conn) PeerIdentity {
	if c == nil || c.RemoteAddr() == nil {
		return ""
	}
	a := c.RemoteAddr()
	return PeerIdentity(a.Network() + " " + a.String())
}
