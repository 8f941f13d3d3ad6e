package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateLayouts are accepted for Transcript.Date, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 as well as timestamps without a zone (read
// as UTC) and bare dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// UnmarshalJSON lets the date field use any layout ParseDate accepts.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	type plain Transcript
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		t.Date = time.Time{}
		return nil
	}
	d, err := ParseDate(aux.Date)
	if err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	t.Date = d
	return nil
}
