package led

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// SetFramePacket is the packet type byte of a serial frame.
const SetFramePacket byte = 0x02

// serialLink is a serial connection to a microcontroller that drives the
// strips. Channels share the link.
type serialLink struct {
	mu    sync.Mutex
	w     io.WriteCloser
	order Order
	open  int
}

// serialChannel is the Driver for one channel behind a serialLink.
type serialChannel struct {
	link    *serialLink
	channel int
	count   int
	buf     []byte
	closed  bool
}

// OpenSerial opens device at baud and returns a driver per channel. counts
// maps each channel to its pixel count.
func OpenSerial(device string, baud int, counts map[int]int, order Order) (map[int]Driver, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %q", device)
	}
	drivers, err := newSerial(port, counts, order)
	if err != nil {
		port.Close()
		return nil, err
	}
	return drivers, nil
}

func newSerial(w io.WriteCloser, counts map[int]int, order Order) (map[int]Driver, error) {
	link := &serialLink{w: w, order: order, open: len(counts)}
	out := make(map[int]Driver, len(counts))
	for ch, count := range counts {
		if ch < 0 || ch > 0xff {
			return nil, errors.Errorf("channel %d does not fit the serial protocol", ch)
		}
		if count <= 0 || count > 0xffff {
			return nil, errors.Errorf("invalid LED count %d for channel %d", count, ch)
		}
		out[ch] = &serialChannel{
			link:    link,
			channel: ch,
			count:   count,
			buf:     make([]byte, 4+count*3+4),
		}
	}
	return out, nil
}

func (c *serialChannel) Count() int { return c.count }

// Write sends one set packet: type, channel, little-endian pixel count,
// pixels in wire order and a little-endian CRC-32 of everything before it.
func (c *serialChannel) Write(rgb []byte) error {
	if err := checkFrame(c.count, rgb); err != nil {
		return err
	}

	c.link.mu.Lock()
	defer c.link.mu.Unlock()

	if c.closed || c.link.w == nil {
		return errors.New("serial link closed")
	}

	p := c.buf
	p[0] = SetFramePacket
	p[1] = byte(c.channel)
	binary.LittleEndian.PutUint16(p[2:4], uint16(c.count))
	c.link.order.Encode(p[4:4+len(rgb)], rgb)
	body := 4 + len(rgb)
	binary.LittleEndian.PutUint32(p[body:], crc32.ChecksumIEEE(p[:body]))

	if _, err := c.link.w.Write(p); err != nil {
		return errors.Wrap(err, "serial write")
	}
	return nil
}

func (c *serialChannel) Close() error {
	c.link.mu.Lock()
	defer c.link.mu.Unlock()

	if c.closed || c.link.w == nil {
		return nil
	}
	c.closed = true

	c.link.open--
	if c.link.open > 0 {
		return nil
	}
	err := c.link.w.Close()
	c.link.w = nil
	return err
}
