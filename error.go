// Copyright 2012 Michael Meier. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package m24c32

import "github.com/pkg/errors"

// Every driver operation returns nil or one of these. The cause of an
// ErrFailed is only recorded in Stats.
var (
	// ErrFailed signals a failed bus transaction.
	ErrFailed = errors.New("m24c32: transaction failed")

	// ErrAbsent signals that the device did not answer Init and the
	// operation was refused without touching the bus.
	ErrAbsent = errors.New("m24c32: device absent")

	// ErrDenied signals an out of range argument.
	ErrDenied = errors.New("m24c32: request denied")
)
