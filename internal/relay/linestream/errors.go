package linestream

import "errors"

// ErrLineTooLong - returns when the peer sends a line longer than allowed max size.
// The stream is unusable after this error.
var ErrLineTooLong = errors.New("linestream.Stream: line too long")
