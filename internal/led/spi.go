package led

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// DefaultSPIFreq is the NRZ bit clock used when none is configured.
const DefaultSPIFreq = 2500 * physic.KiloHertz

// SPI drives one WS281x-style strip through an SPI port using NRZ
// encoding.
type SPI struct {
	mu    sync.Mutex
	dev   *nrzled.Dev
	port  io.Closer
	count int
	order Order
	buf   []byte
}

var hostOnce struct {
	sync.Once
	err error
}

// OpenSPI opens the named SPI port (e.g. "/dev/spidev0.0" or "SPI0.0"; ""
// picks the first one) and prepares an NRZ encoder for count pixels.
func OpenSPI(name string, count int, freq physic.Frequency, order Order) (*SPI, error) {
	hostOnce.Do(func() {
		_, hostOnce.err = host.Init()
	})
	if hostOnce.err != nil {
		return nil, errors.Wrap(hostOnce.err, "periph host init")
	}

	p, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open spi port %q", name)
	}

	s, err := newSPI(p, p, count, freq, order)
	if err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

func newSPI(p spi.Port, closer io.Closer, count int, freq physic.Frequency, order Order) (*SPI, error) {
	if count <= 0 {
		return nil, errors.Errorf("invalid LED count: %d", count)
	}
	if freq == 0 {
		freq = DefaultSPIFreq
	}

	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, errors.Wrap(err, "nrzled")
	}

	return &SPI{
		dev:   d,
		port:  closer,
		count: count,
		order: order,
		buf:   make([]byte, count*3),
	}, nil
}

func (s *SPI) Count() int { return s.count }

func (s *SPI) Write(rgb []byte) error {
	if err := checkFrame(s.count, rgb); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return errors.New("spi closed")
	}

	s.order.Encode(s.buf, rgb)
	if _, err := s.dev.Write(s.buf); err != nil {
		return errors.Wrap(err, "spi write")
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return nil
	}

	err := s.dev.Halt()
	s.dev = nil
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
