package availability

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strings"
)

// Status is a member's stance on one day. The zero value, NoResponse, is
// never stored: a missing record is what "no response" means.
type Status uint8

const (
	NoResponse Status = iota
	Can
	Maybe
	Cannot
)

var statusNames = map[Status]string{
	Can:    "can",
	Maybe:  "maybe",
	Cannot: "cannot",
}

// Statuses lists the storable statuses in display order.
func Statuses() []Status {
	return []Status{Can, Maybe, Cannot}
}

// ParseStatus accepts exactly "can", "maybe" or "cannot" (case-insensitive).
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for status, name := range statusNames {
		if name == normalized {
			return status, nil
		}
	}
	if normalized == "" {
		return NoResponse, invalid("status", "is required")
	}
	return NoResponse, invalid("status", fmt.Sprintf("must be one of can, maybe, cannot; got %q", value))
}

// parseRangeStatus is ParseStatus plus "clear"/"none", which map to
// NoResponse and turn a range application into a range clear.
func parseRangeStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "clear", "none":
		return NoResponse, nil
	}
	return ParseStatus(value)
}

// Valid reports whether s is one of the three storable statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	if s == NoResponse {
		return "no_response"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalJSON renders NoResponse as null.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return []byte("null"), nil
	}
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = NoResponse
		return nil
	}
	parsed, err := ParseStatus(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer; only storable statuses can be written.
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("status %s cannot be stored", s)
	}
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported status column type %T", src)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (Status) GormDataType() string {
	return "string"
}
