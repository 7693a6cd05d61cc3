package led

import "github.com/pkg/errors"

// WS281xOptions configures the PWM/DMA driven WS281x device.
type WS281xOptions struct {
	// Frequency is the data rate in Hz, usually 800000.
	Frequency int
	// DMA is the DMA channel used for output.
	DMA int
	// Brightness scales every channel, 0..255.
	Brightness int
	// Order is the strips' wire color order.
	Order Order
}

// DefaultWS281xOptions matches the common WS2812 setup on a Raspberry Pi.
var DefaultWS281xOptions = WS281xOptions{
	Frequency:  800000,
	DMA:        10,
	Brightness: 255,
	Order:      RGB,
}

// pwmChannel returns the PWM channel index that a GPIO pin outputs.
func pwmChannel(pin int) (int, error) {
	switch pin {
	case 12, 18, 40, 52:
		return 0, nil
	case 13, 19, 41, 45:
		return 1, nil
	default:
		return 0, errors.Errorf("gpio %d is not a PWM pin", pin)
	}
}

// pwmLayout assigns each pin its PWM channel index and rejects two pins on
// the same index.
func pwmLayout(counts map[int]int) (map[int]int, error) {
	byIndex := map[int]int{}
	out := make(map[int]int, len(counts))
	for pin := range counts {
		idx, err := pwmChannel(pin)
		if err != nil {
			return nil, err
		}
		if other, ok := byIndex[idx]; ok {
			return nil, errors.Errorf("gpio %d and %d share pwm channel %d", other, pin, idx)
		}
		byIndex[idx] = pin
		out[pin] = idx
	}
	return out, nil
}
