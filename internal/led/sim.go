package led

import (
	"sync"

	"github.com/rs/zerolog"
)

// Sim is an in-memory driver. It keeps the last committed frame and logs a
// compact summary of every write, which is useful for headless runs.
type Sim struct {
	mu      sync.Mutex
	channel int
	count   int
	last    []byte
	writes  int
	closed  bool
	log     zerolog.Logger
}

// NewSim creates a simulated sink of count pixels for channel.
func NewSim(channel, count int, log zerolog.Logger) *Sim {
	return &Sim{
		channel: channel,
		count:   count,
		last:    make([]byte, count*3),
		log:     log,
	}
}

func (s *Sim) Count() int { return s.count }

func (s *Sim) Write(rgb []byte) error {
	if err := checkFrame(s.count, rgb); err != nil {
		return err
	}

	s.mu.Lock()
	copy(s.last, rgb)
	s.writes++
	n := s.writes
	s.mu.Unlock()

	lit := 0
	first := -1
	for i := 0; i < s.count; i++ {
		if rgb[i*3] != 0 || rgb[i*3+1] != 0 || rgb[i*3+2] != 0 {
			lit++
			if first < 0 {
				first = i
			}
		}
	}

	s.log.Debug().
		Int("channel", s.channel).
		Int("frame", n).
		Int("lit", lit).
		Int("first_lit", first).
		Msg("sim frame")
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Frame returns a copy of the last committed frame.
func (s *Sim) Frame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

// Writes returns how many frames were committed.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Closed reports whether Close was called.
func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
