package layout

import (
	"fmt"
	"math"
	"strconv"
)

// Record is one loosely-typed strip record as decoded from YAML, TOML or
// JSON.
type Record = map[string]any

// ConfigError reports an unusable strip record.
type ConfigError struct {
	// Index is the position of the offending record.
	Index int
	// Field names the missing or malformed field.
	Field string
	// Reason describes what is wrong with it.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("strip %d: %s: %s", e.Index, e.Field, e.Reason)
}

// Field names accepted for each strip property. The first name of each
// pair takes precedence when a record carries both.
var (
	densityFields = []string{"leds_per_m", "ledsPerM"}
	channelFields = []string{"gpio_pin", "gpioPin"}
)

// MaxPixels bounds the pixel count of a single strip. It is the largest
// frame the serial bridge can address.
const MaxPixels = 1<<16 - 1

// Assemble validates records into strips, preserving their order. remap
// rewrites declared channels onto the channels actually wired to the
// strips; channels absent from remap are kept as declared.
func Assemble(records []Record, remap map[int]int) ([]Strip, error) {
	strips := make([]Strip, 0, len(records))
	seen := make(map[int]int, len(records))

	for i, rec := range records {
		s, err := assembleOne(i, rec)
		if err != nil {
			return nil, err
		}

		if to, ok := remap[s.Channel]; ok {
			s.Channel = to
		}

		if prev, ok := seen[s.Channel]; ok {
			return nil, &ConfigError{
				Index:  i,
				Field:  channelFields[0],
				Reason: fmt.Sprintf("channel %d already used by strip %d", s.Channel, prev),
			}
		}
		seen[s.Channel] = i

		strips = append(strips, s)
	}

	return strips, nil
}

func assembleOne(i int, rec Record) (Strip, error) {
	var s Strip
	var err error

	if s.Offset, err = floatField(i, rec, "offset"); err != nil {
		return s, err
	}

	if s.Length, err = floatField(i, rec, "length"); err != nil {
		return s, err
	}
	if s.Length <= 0 {
		return s, &ConfigError{i, "length", "must be positive"}
	}

	if s.Density, err = intField(i, rec, densityFields...); err != nil {
		return s, err
	}
	if s.Density <= 0 {
		return s, &ConfigError{i, densityFields[0], "must be positive"}
	}
	// Compare before converting so huge lengths cannot wrap Count.
	if n := math.Round(float64(s.Density) * s.Length); n < 1 || n > MaxPixels {
		return s, &ConfigError{i, "length", fmt.Sprintf("%g pixels at %d/m, want 1..%d", n, s.Density, MaxPixels)}
	}

	if s.Channel, err = intField(i, rec, channelFields...); err != nil {
		return s, err
	}

	if v, ok := rec["reverse"]; ok && v != nil {
		b, ok := asBool(v)
		if !ok {
			return s, &ConfigError{i, "reverse", fmt.Sprintf("not a boolean: %v", v)}
		}
		s.Reversed = b
	}

	return s, nil
}

// lookup returns the value of the first present name.
func lookup(rec Record, names []string) (string, any, bool) {
	for _, name := range names {
		if v, ok := rec[name]; ok && v != nil {
			return name, v, true
		}
	}
	return "", nil, false
}

func floatField(i int, rec Record, names ...string) (float64, error) {
	name, v, ok := lookup(rec, names)
	if !ok {
		return 0, &ConfigError{i, names[0], "missing"}
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, &ConfigError{i, name, fmt.Sprintf("not a number: %v", v)}
	}
	return f, nil
}

func intField(i int, rec Record, names ...string) (int, error) {
	f, err := floatField(i, rec, names...)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		name, _, _ := lookup(rec, names)
		return 0, &ConfigError{i, name, fmt.Sprintf("not an integer: %v", f)}
	}
	return int(f), nil
}

// asFloat accepts any finite number, including numeric strings.
func asFloat(v any) (float64, bool) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case uint:
		f = float64(v)
	case string:
		var err error
		if f, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return f, !math.IsNaN(f) && !math.IsInf(f, 0)
}

func asBool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	default:
		return false, false
	}
}
