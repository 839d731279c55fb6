package eventstream

import "errors"

// ErrNilWorkshopEvent indicates a nil workshop event payload was provided to a publisher.
var ErrNilWorkshopEvent = errors.New("nil workshop event")
