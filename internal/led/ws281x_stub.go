//go:build !linux || !cgo

package led

import "github.com/pkg/errors"

// OpenWS281x is only available on linux builds with cgo.
func OpenWS281x(counts map[int]int, o WS281xOptions) (map[int]Driver, error) {
	return nil, errors.New("ws281x driver not supported on this platform")
}
