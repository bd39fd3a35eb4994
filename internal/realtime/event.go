// Package realtime delivers row change notifications to subscribed clients.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// ChangeEvent describes one row mutation.
type ChangeEvent struct {
	Table      string         `json:"table"`
	Type       EventType      `json:"type"`
	OrgID      int64          `json:"org_id"`
	Record     map[string]any `json:"record,omitempty"`
	Old        map[string]any `json:"old_record,omitempty"`
	CommitTime time.Time      `json:"commit_timestamp"`
}

// NewEvent converts the given rows to their JSON field maps.
func NewEvent(table string, typ EventType, orgID int64, record, old any) (ChangeEvent, error) {
	ev := ChangeEvent{Table: table, Type: typ, OrgID: orgID, CommitTime: time.Now().UTC()}
	var err error
	if record != nil {
		if ev.Record, err = toMap(record); err != nil {
			return ChangeEvent{}, err
		}
	}
	if old != nil {
		if ev.Old, err = toMap(old); err != nil {
			return ChangeEvent{}, err
		}
	}
	return ev, nil
}

// row returns the record a filter is evaluated against.
func (e ChangeEvent) row() map[string]any {
	if e.Type == Delete || e.Record == nil {
		return e.Old
	}
	return e.Record
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return m, nil
}

func decodeEvent(b []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	err := dec.Decode(&ev)
	return ev, err
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Filter is a column equality condition written as "column=eq.value".
type Filter struct {
	Column string
	Value  string
}

func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Filter{}, nil
	}
	col, rest, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("invalid filter %q", s)
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("only eq filters are supported, got %q", s)
	}
	return Filter{Column: col, Value: val}, nil
}

func (f Filter) Empty() bool { return f.Column == "" }

func (f Filter) Match(row map[string]any) bool {
	if f.Empty() {
		return true
	}
	v, ok := row[f.Column]
	if !ok {
		return false
	}
	return stringify(v) == f.Value
}

// Publisher receives committed change events.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, ChangeEvent) error { return nil }

// Buffer collects events produced inside a transaction so they can be
// published once it commits.
type Buffer struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (b *Buffer) Publish(_ context.Context, ev ChangeEvent) error {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
	return nil
}

// Flush forwards buffered events to pub in order and empties the buffer.
func (b *Buffer) Flush(ctx context.Context, pub Publisher) error {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.mu.Unlock()

	var firstErr error
	for _, ev := range events {
		if err := pub.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len reports the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
