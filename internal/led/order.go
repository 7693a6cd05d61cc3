package led

import (
	"strings"

	"github.com/pkg/errors"
)

// Order is the byte order a strip expects its color channels in on the
// wire. Frames are kept in RGB order until they reach a driver; drivers
// permute with Order right before transmission.
type Order [3]byte

// Supported wire orders.
var (
	RGB = Order{'R', 'G', 'B'}
	RBG = Order{'R', 'B', 'G'}
	GRB = Order{'G', 'R', 'B'}
	GBR = Order{'G', 'B', 'R'}
	BRG = Order{'B', 'R', 'G'}
	BGR = Order{'B', 'G', 'R'}
)

// ParseOrder parses an order name such as "GRB". The empty string is RGB.
func ParseOrder(s string) (Order, error) {
	if s == "" {
		return RGB, nil
	}
	s = strings.ToUpper(s)
	if len(s) != 3 {
		return RGB, errors.Errorf("invalid color order %q", s)
	}
	o := Order{s[0], s[1], s[2]}
	for _, c := range "RGB" {
		if strings.Count(s, string(c)) != 1 {
			return RGB, errors.Errorf("invalid color order %q", s)
		}
	}
	return o, nil
}

func (o Order) String() string { return string(o[:]) }

// Apply returns r, g, b rearranged into wire order.
func (o Order) Apply(r, g, b byte) [3]byte {
	var v [3]byte
	for i := 0; i < 3; i++ {
		switch o[i] {
		case 'R':
			v[i] = r
		case 'G':
			v[i] = g
		case 'B':
			v[i] = b
		}
	}
	return v
}

// Encode permutes a canonical RGB frame into dst in wire order.
// dst must be at least as long as rgb.
func (o Order) Encode(dst, rgb []byte) {
	for i := 0; i+2 < len(rgb); i += 3 {
		v := o.Apply(rgb[i], rgb[i+1], rgb[i+2])
		copy(dst[i:i+3], v[:])
	}
}

// Word packs r, g, b into a 0x00XXYYZZ word whose bytes, from most to
// least significant, follow the wire order.
func (o Order) Word(r, g, b byte) uint32 {
	v := o.Apply(r, g, b)
	return uint32(v[0])<<16 | uint32(v[1])<<8 | uint32(v[2])
}
