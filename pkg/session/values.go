package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
)

// Values is a JSON object stored in a state, metadata, preference or stats
// column.
type Values map[string]any

// Merge returns a new map holding v overlaid with patch. Keys in patch win;
// keys only in v are kept. Neither input is modified.
func (v Values) Merge(patch Values) Values {
	out := make(Values, len(v)+len(patch))
	maps.Copy(out, v)
	maps.Copy(out, patch)
	return out
}

// Clone returns a shallow copy, never nil.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// MarshalValues encodes v as a JSON object; nil encodes as {}.
func MarshalValues(v Values) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling values: %w", err)
	}
	return data, nil
}

// decodeJSON unmarshals data into v, keeping numbers as json.Number so
// integers above 2^53 survive a read-merge-write cycle unchanged.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

// UnmarshalValues decodes a JSON object column. NULL and empty input yield an
// empty map. Numbers decode as json.Number.
func UnmarshalValues(data []byte) (Values, error) {
	out := Values{}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := decodeJSON(data, &out); err != nil {
		return Values{}, fmt.Errorf("unmarshaling values: %w", err)
	}
	if out == nil {
		out = Values{}
	}
	return out, nil
}

// UnknownEventType is recorded for events without a "type" key.
const UnknownEventType = "unknown"

// Event is a single conversational event payload. Its "type" key names the
// kind of event; every other key is free-form.
type Event map[string]any

// NewEvent builds an event of the given kind carrying data.
func NewEvent(kind string, data map[string]any) Event {
	e := make(Event, len(data)+1)
	maps.Copy(e, data)
	e["type"] = kind
	return e
}

// Type returns the event's declared type, or UnknownEventType.
func (e Event) Type() string {
	if t, ok := e["type"].(string); ok && t != "" {
		return t
	}
	return UnknownEventType
}

// MarshalEvents encodes an event list; nil encodes as [].
func MarshalEvents(events []Event) ([]byte, error) {
	if events == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("marshaling events: %w", err)
	}
	return data, nil
}

// UnmarshalEvents decodes an event list column. NULL and empty input yield an
// empty list.
func UnmarshalEvents(data []byte) ([]Event, error) {
	out := []Event{}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := decodeJSON(data, &out); err != nil {
		return []Event{}, fmt.Errorf("unmarshaling events: %w", err)
	}
	if out == nil {
		out = []Event{}
	}
	return out, nil
}

// MarshalEvent encodes a single event; nil encodes as {}.
func MarshalEvent(e Event) ([]byte, error) {
	return MarshalValues(Values(e))
}

// UnmarshalEvent decodes a single event column.
func UnmarshalEvent(data []byte) (Event, error) {
	v, err := UnmarshalValues(data)
	if err != nil {
		return Event{}, err
	}
	return Event(v), nil
}
