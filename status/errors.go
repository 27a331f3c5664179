package status

import "errors"

var (
	// ErrWaitTimeout indicates that a Wait deadline elapsed before the
	// underlying operations finished. The Status is resolved failed with this
	// error; the hardware operation itself is left in whatever state it was.
	ErrWaitTimeout = errors.New("wait timeout")
)
