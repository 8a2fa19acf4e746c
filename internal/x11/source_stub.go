//go:build !linux

package x11

import "errors"

func newSource() (windowSource, error) {
	return nil, errors.New("X11 window tracking is only supported on Linux")
}
