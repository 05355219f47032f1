package stats

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"emperror.dev/errors"
)

// ErrMalformed is wrapped by every FieldError so callers can check for a
// malformed upstream value without caring which field it came from.
const ErrMalformed = errors.Sentinel("stats: malformed field value")

// Unit is the suffix attached to a parsed measurement. An empty unit means the
// suffix was not recognized and the measurement value is zero.
type Unit string

const (
	UnitNone  Unit = ""
	UnitBytes Unit = "bytes"
	UnitB     Unit = "B"
	UnitKB    Unit = "KB"
	UnitMB    Unit = "MB"
	UnitGB    Unit = "GB"
	UnitKiB   Unit = "KiB"
	UnitMiB   Unit = "MiB"
	UnitGiB   Unit = "GiB"
)

// Suffixes checked for byte counts reported on I/O fields, in the order they
// must be tested. The lower-case variants are what the docker CLI prints when
// rendering decimal sizes.
var byteSuffixes = []struct {
	suffixes []string
	unit     Unit
}{
	{[]string{"GB", "gB"}, UnitGB},
	{[]string{"MB", "mB"}, UnitMB},
	{[]string{"KB", "kB"}, UnitKB},
	{[]string{"B"}, UnitB},
}

// Measurement is a numeric value with the unit it was reported in.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// IsZero returns true if this measurement carries neither a value nor a unit.
func (m Measurement) IsZero() bool {
	return m.Value == 0 && m.Unit == UnitNone
}

func (m Measurement) String() string {
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + string(m.Unit)
}

// IOPair is a bidirectional counter, such as block or network I/O.
type IOPair struct {
	Incoming Measurement `json:"incoming"`
	Outgoing Measurement `json:"outgoing"`
}

// FieldError is returned when the numeric portion of a raw field cannot be
// parsed. It keeps the field name and the offending raw value around so that
// the log line points at exactly what upstream sent.
type FieldError struct {
	Field string
	Value string
	err   error
}

func newFieldError(field, value string, err error) *FieldError {
	return &FieldError{Field: field, Value: value, err: err}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("stats: failed to parse %s value %q: %s", e.Field, e.Value, e.err)
}

// Is allows callers to match any field error against ErrMalformed.
func (e *FieldError) Is(target error) bool {
	return target == ErrMalformed
}

func (e *FieldError) Unwrap() error {
	return e.err
}

// ParsePercent parses a value such as "45.2%" into 45.2.
func ParsePercent(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
	if err != nil {
		return 0, newFieldError(field, s, err)
	}
	return v, nil
}

// ParseBytes parses one side of an I/O pair, e.g. "12.3MB" or "0B". A value
// without any recognized suffix returns an empty measurement and no error.
func ParseBytes(field, s string) (Measurement, error) {
	s = strings.TrimSpace(s)
	for _, bs := range byteSuffixes {
		for _, suffix := range bs.suffixes {
			if !strings.HasSuffix(s, suffix) {
				continue
			}
			raw := strings.TrimSuffix(s, suffix)
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Measurement{}, newFieldError(field, s, err)
			}
			return Measurement{Value: v, Unit: bs.unit}, nil
		}
	}
	return Measurement{}, nil
}

// ParseIO parses a "IN / OUT" field. If the value does not split into exactly
// two parts an empty pair is returned without an error, a malformed pair must
// never abort the rest of the record.
func ParseIO(field, s string) (IOPair, error) {
	parts := strings.Split(s, " / ")
	if len(parts) != 2 {
		return IOPair{}, nil
	}
	in, err := ParseBytes(field, parts[0])
	if err != nil {
		return IOPair{}, err
	}
	out, err := ParseBytes(field, parts[1])
	if err != nil {
		return IOPair{}, err
	}
	return IOPair{Incoming: in, Outgoing: out}, nil
}

// ParseMemory parses a single memory value such as "128MiB" or "1.5GiB". The
// unit is the trailing run of letters (at most three), the value is whatever
// comes before it.
func ParseMemory(field, s string) (Measurement, error) {
	s = strings.TrimSpace(s)
	if s == "0B" || len(s) < 3 {
		return Measurement{Value: 0, Unit: UnitBytes}, nil
	}
	i := len(s)
	for i > 0 && len(s)-i < 3 && unicode.IsLetter(rune(s[i-1])) {
		i--
	}
	if i == len(s) {
		// Nothing alphabetic at the end, so there is no unit to speak of.
		return Measurement{}, newFieldError(field, s, errors.New("missing unit suffix"))
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Measurement{}, newFieldError(field, s, err)
	}
	return Measurement{Value: v, Unit: Unit(s[i:])}, nil
}

// ParseMemoryUsage splits a "USED / LIMIT" field, falling back to a bare "/"
// separator. If neither split works both measurements are returned empty.
func ParseMemoryUsage(field, s string) (Measurement, Measurement, error) {
	parts := strings.Split(s, " / ")
	if len(parts) < 2 {
		parts = strings.Split(s, "/")
	}
	if len(parts) < 2 {
		return Measurement{}, Measurement{}, nil
	}
	used, err := ParseMemory(field, parts[0])
	if err != nil {
		return Measurement{}, Measurement{}, err
	}
	limit, err := ParseMemory(field, parts[1])
	if err != nil {
		return Measurement{}, Measurement{}, err
	}
	return used, limit, nil
}
