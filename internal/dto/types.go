package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Number accepts either a JSON number or a numeric string, so form encoded
// clients can send "3.5" for a gpa.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + string(raw), Type: reflect.TypeOf(float64(0))}
	}
	*n = Number(f)
	return nil
}

// Float64 returns the value as a plain pointer for persistence.
func (n *Number) Float64() *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain calendar dates. Plain
// dates are interpreted as the end of that day in UTC so a deadline of
// "2025-03-01" still admits applications during March 1st.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse date %q: unsupported format", value)
}

// ParseOptionalDate converts an optional payload date. An empty string
// yields (nil, true) meaning "clear the value".
func ParseOptionalDate(value *string) (*time.Time, bool, error) {
	if value == nil {
		return nil, false, nil
	}
	if strings.TrimSpace(*value) == "" {
		return nil, true, nil
	}
	t, err := ParseDate(*value)
	if err != nil {
		return nil, false, err
	}
	return &t, true, nil
}
