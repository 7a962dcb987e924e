package relay

// CloseReason - describes why the session was closed.
type CloseReason int32

const (
	_ CloseReason = iota
	// ReasonLeft - the peer has closed the connection.
	ReasonLeft
	// ReasonTimeout - the peer was idle or did not accept data in time.
	ReasonTimeout
	// ReasonFailed - connection I/O failed.
	ReasonFailed
	// ReasonShutdown - the session was closed by the server or the hub was closed.
	ReasonShutdown
)

func (r CloseReason) String() string {
	switch r {
	case ReasonLeft:
		return "left"
	case ReasonTimeout:
		return "timeout"
	case ReasonFailed:
		return "failed"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
