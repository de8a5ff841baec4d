package usage

import "errors"

// ErrSessionClosed is returned when a closed session is closed again.
var ErrSessionClosed = errors.New("usage session already closed")
