package led

import "github.com/pkg/errors"

// Driver abstracts the output sink of one strip channel.
type Driver interface {
	// Count returns the number of pixels the sink drives.
	Count() int
	// Write commits a full frame of canonical RGB bytes to hardware in one
	// update. len(rgb) must be 3*Count().
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sinks maps output channels onto their drivers.
type Sinks map[int]Driver

// Close closes every driver and returns the first error.
func (s Sinks) Close() error {
	var first error
	for ch, d := range s {
		if err := d.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close channel %d", ch)
		}
	}
	return first
}

func checkFrame(count int, rgb []byte) error {
	if len(rgb) != count*3 {
		return errors.Errorf("rgb length %d does not match count %d", len(rgb), count)
	}
	return nil
}
