package realtime

import "errors"

var ErrClientClosed = errors.New("realtime client closed")
