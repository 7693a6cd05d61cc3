package led

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/pathglow/internal/layout"
)

// Driver kinds accepted by Open.
const (
	KindWS281x = "ws281x"
	KindSPI    = "spi"
	KindSerial = "serial"
	KindSim    = "sim"
)

// Options selects and tunes the drivers built by Open.
type Options struct {
	Kind string

	// Order is the strips' wire color order.
	Order  Order
	WS281x WS281xOptions
	// SPIPorts maps a channel onto its SPI port name.
	SPIPorts map[int]string
	SPIFreq  physic.Frequency
	// SerialDevice and SerialBaud describe the serial link.
	SerialDevice string
	SerialBaud   int
}

// Open builds one driver per strip, keyed by the strip's channel.
func Open(strips []layout.Strip, o Options, log zerolog.Logger) (Sinks, error) {
	counts := make(map[int]int, len(strips))
	for _, s := range strips {
		counts[s.Channel] = s.Count()
	}

	log = log.With().Str("driver", o.Kind).Logger()

	switch o.Kind {
	case KindSim, "":
		sinks := make(Sinks, len(counts))
		for ch, n := range counts {
			sinks[ch] = NewSim(ch, n, log)
		}
		return sinks, nil

	case KindWS281x:
		wo := o.WS281x
		wo.Order = o.Order
		drivers, err := OpenWS281x(counts, wo)
		if err != nil {
			return nil, err
		}
		return Sinks(drivers), nil

	case KindSPI:
		sinks := make(Sinks, len(counts))
		for ch, n := range counts {
			name, ok := o.SPIPorts[ch]
			if !ok {
				sinks.Close()
				return nil, errors.Errorf("no spi port configured for channel %d", ch)
			}
			d, err := OpenSPI(name, n, o.SPIFreq, o.Order)
			if err != nil {
				sinks.Close()
				return nil, errors.Wrapf(err, "channel %d", ch)
			}
			log.Debug().Int("channel", ch).Str("port", name).Msg("spi channel open")
			sinks[ch] = d
		}
		return sinks, nil

	case KindSerial:
		drivers, err := OpenSerial(o.SerialDevice, o.SerialBaud, counts, o.Order)
		if err != nil {
			return nil, err
		}
		return Sinks(drivers), nil

	default:
		return nil, errors.Errorf("unknown driver %q", o.Kind)
	}
}
