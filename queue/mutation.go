package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies a mutation variant on the wire.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Mutation is a description of a table write the user intended to perform.
// The set of variants is closed so replay can switch exhaustively.
type Mutation interface {
	kind() Kind
	table() string
	wireData() map[string]any
}

// Create inserts a new record into Table.
type Create struct {
	Table  string
	Fields map[string]any
}

func (c Create) kind() Kind    { return KindCreate }
func (c Create) table() string { return c.Table }

func (c Create) wireData() map[string]any {
	return cloneFields(c.Fields)
}

// Update patches the record identified by RecordID in Table.
type Update struct {
	Table    string
	RecordID string
	Fields   map[string]any
}

func (u Update) kind() Kind    { return KindUpdate }
func (u Update) table() string { return u.Table }

// wireData carries the target id inside the payload itself, so a stored
// action is self-contained.
func (u Update) wireData() map[string]any {
	data := cloneFields(u.Fields)
	data["id"] = u.RecordID
	return data
}

// Delete removes the record identified by RecordID from Table.
type Delete struct {
	Table    string
	RecordID string
}

func (d Delete) kind() Kind    { return KindDelete }
func (d Delete) table() string { return d.Table }

func (d Delete) wireData() map[string]any {
	return map[string]any{"id": d.RecordID}
}

// Action is a queued mutation. Actions are immutable once enqueued: the id
// is unique and creation-ordered ids are never reused or edited in place.
type Action struct {
	ID         string
	EnqueuedAt time.Time
	Mutation   Mutation
}

// wireAction is the durable JSON shape:
// {"id": ..., "type": "create"|"update"|"delete", "table": ..., "data": {...}, "timestamp": ms}.
type wireAction struct {
	ID        string         `json:"id"`
	Type      Kind           `json:"type"`
	Table     string         `json:"table"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// MarshalJSON encodes the action in the durable wire shape.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAction{
		ID:        a.ID,
		Type:      a.Mutation.kind(),
		Table:     a.Mutation.table(),
		Data:      a.Mutation.wireData(),
		Timestamp: a.EnqueuedAt.UnixMilli(),
	})
}

// UnmarshalJSON decodes the durable wire shape back into a tagged variant.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	a.ID = w.ID
	a.EnqueuedAt = time.UnixMilli(w.Timestamp).UTC()

	switch w.Type {
	case KindCreate:
		a.Mutation = Create{Table: w.Table, Fields: w.Data}
	case KindUpdate:
		id, fields, err := splitRecordID(w)
		if err != nil {
			return err
		}
		a.Mutation = Update{Table: w.Table, RecordID: id, Fields: fields}
	case KindDelete:
		id, _, err := splitRecordID(w)
		if err != nil {
			return err
		}
		a.Mutation = Delete{Table: w.Table, RecordID: id}
	default:
		return fmt.Errorf("unknown action type %q", w.Type)
	}
	return nil
}

func splitRecordID(w wireAction) (string, map[string]any, error) {
	id, ok := w.Data["id"].(string)
	if !ok || id == "" {
		return "", nil, fmt.Errorf("%s action %s has no record id in payload", w.Type, w.ID)
	}
	fields := cloneFields(w.Data)
	delete(fields, "id")
	return id, fields, nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
