// Package queue durably records table mutations attempted while offline and
// replays them, in enqueue order, once connectivity returns.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/glamflow/offline-sync/connectivity"
	"github.com/glamflow/offline-sync/remote"
	"github.com/glamflow/offline-sync/storage"
	"github.com/glamflow/offline-sync/types"
)

// DefaultStorageKey is the durable store key holding the queue.
const DefaultStorageKey = "offline-actions"

// Remote is the slice of the backend client the queue needs for replay.
// *remote.Client satisfies it.
type Remote interface {
	Insert(ctx context.Context, table string, fields map[string]any) error
	UpdateByID(ctx context.Context, table, id string, fields map[string]any) error
	DeleteByID(ctx context.Context, table, id string) error
}

// ReplayResult summarizes one replay pass. Remaining counts the actions
// still queued after the pass; the UI renders Synced as "N changes synced".
type ReplayResult struct {
	Attempted int
	Synced    int
	Remaining int
}

// Options configures a Queue.
type Options struct {
	// Store is the durable store the queue persists itself to. Required.
	Store storage.Store

	// Remote is the backend client used during replay. Required.
	Remote Remote

	// Monitor, when set, triggers a replay on every offline-to-online
	// transition.
	Monitor *connectivity.Monitor

	// StorageKey overrides DefaultStorageKey.
	StorageKey string

	// Logger is the logger for debug logging. If nil, defaults to no-op.
	Logger types.Logger

	// OnReplay, when set, is called with the result of every replay pass
	// that attempted at least one action.
	OnReplay func(ReplayResult)
}

// Queue is the offline action queue. All mutating methods persist the full
// queue to the durable store, so a restart resumes exactly where the
// previous process left off.
type Queue struct {
	store       storage.Store
	remote      Remote
	monitor     *connectivity.Monitor
	key         string
	logger      types.Logger
	onReplay    func(ReplayResult)
	unsubscribe func()

	flight singleflight.Group

	mu      sync.Mutex // held across persist so snapshots never interleave
	actions []Action
}

// New creates the queue and loads any previously persisted actions. When a
// monitor reports the process online and the queue is non-empty, an
// opportunistic replay runs before returning.
func New(ctx context.Context, opts Options) (*Queue, error) {
	if opts.Store == nil {
		return nil, errors.New("queue: store is required")
	}
	if opts.Remote == nil {
		return nil, errors.New("queue: remote is required")
	}
	if opts.StorageKey == "" {
		opts.StorageKey = DefaultStorageKey
	}
	if opts.Logger == nil {
		opts.Logger = types.NewNoOpLogger()
	}

	q := &Queue{
		store:    opts.Store,
		remote:   opts.Remote,
		monitor:  opts.Monitor,
		key:      opts.StorageKey,
		logger:   opts.Logger,
		onReplay: opts.OnReplay,
	}
	q.load(ctx)

	if q.monitor != nil {
		q.unsubscribe = q.monitor.Subscribe(func(online bool) {
			if online {
				q.Replay(context.Background())
			}
		})
		if q.monitor.Online() && q.Len() > 0 {
			q.Replay(ctx)
		}
	}

	return q, nil
}

// load reads the persisted queue. Anything unreadable is treated as an
// empty queue: the durable copy is advisory and must never wedge startup.
func (q *Queue) load(ctx context.Context) {
	data, err := q.store.Get(ctx, q.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			q.logger.Warn("queue: could not read durable copy", "error", err)
		}
		return
	}

	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		q.logger.Warn("queue: durable copy unreadable, starting empty", "error", err)
		return
	}

	q.mu.Lock()
	q.actions = actions
	q.mu.Unlock()
}

// Enqueue records a mutation for later replay and persists the queue. The
// in-memory enqueue always succeeds; a failed persist is logged and the
// action survives only until the process exits.
//
// A Create without an "id" field gets a client-generated uuid injected, so
// replaying the same create twice targets the same primary key instead of
// inserting a duplicate record.
func (q *Queue) Enqueue(ctx context.Context, m Mutation) Action {
	if c, ok := m.(Create); ok {
		if _, exists := c.Fields["id"]; !exists {
			fields := cloneFields(c.Fields)
			fields["id"] = uuid.NewString()
			m = Create{Table: c.Table, Fields: fields}
		}
	}

	action := Action{
		ID:         uuid.NewString(),
		EnqueuedAt: time.Now().UTC(),
		Mutation:   m,
	}

	q.mu.Lock()
	q.actions = append(q.actions, action)
	q.persistLocked(ctx)
	n := len(q.actions)
	q.mu.Unlock()

	q.logger.Debug("queue: action enqueued", "id", action.ID, "table", m.table(), "pending", n)
	return action
}

// Apply attempts the mutation directly against the backend and falls back
// to enqueueing it when the process is offline or the backend is
// unreachable. A rejection the backend actually issued (non-2xx) is
// returned to the caller and not queued; retrying it later would fail the
// same way.
func (q *Queue) Apply(ctx context.Context, m Mutation) (queued bool, err error) {
	if q.monitor != nil && !q.monitor.Online() {
		q.Enqueue(ctx, m)
		return true, nil
	}

	err = q.dispatch(ctx, m)
	if err == nil {
		return false, nil
	}

	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		return false, err
	}

	q.logger.Debug("queue: direct call failed, queueing", "table", m.table(), "error", err)
	q.Enqueue(ctx, m)
	return true, nil
}

// Replay issues one backend call per queued action, in enqueue order.
// Failed actions stay queued in their original relative order; the pass
// never aborts early. Concurrent invocations are collapsed into one via
// singleflight, so an online event racing a manual call does not double-send.
func (q *Queue) Replay(ctx context.Context) ReplayResult {
	v, _, _ := q.flight.Do("replay", func() (any, error) {
		return q.replay(ctx), nil
	})
	return v.(ReplayResult)
}

func (q *Queue) replay(ctx context.Context) ReplayResult {
	q.mu.Lock()
	pending := make([]Action, len(q.actions))
	copy(pending, q.actions)
	q.mu.Unlock()

	if len(pending) == 0 {
		return ReplayResult{}
	}

	q.logger.Info("queue: replaying pending actions", "count", len(pending))

	completed := make(map[string]struct{}, len(pending))
	for _, action := range pending {
		if err := q.dispatch(ctx, action.Mutation); err != nil {
			q.logger.Warn("queue: replay failed, keeping action",
				"id", action.ID, "table", action.Mutation.table(), "error", err)
			continue
		}
		completed[action.ID] = struct{}{}
	}

	q.mu.Lock()
	kept := q.actions[:0]
	for _, action := range q.actions {
		if _, ok := completed[action.ID]; !ok {
			kept = append(kept, action)
		}
	}
	q.actions = kept
	q.persistLocked(ctx)
	remaining := len(q.actions)
	q.mu.Unlock()

	result := ReplayResult{
		Attempted: len(pending),
		Synced:    len(completed),
		Remaining: remaining,
	}
	if q.onReplay != nil {
		q.onReplay(result)
	}
	return result
}

// dispatch maps a mutation variant onto the corresponding backend call.
func (q *Queue) dispatch(ctx context.Context, m Mutation) error {
	switch mut := m.(type) {
	case Create:
		return q.remote.Insert(ctx, mut.Table, mut.Fields)
	case Update:
		return q.remote.UpdateByID(ctx, mut.Table, mut.RecordID, mut.Fields)
	case Delete:
		return q.remote.DeleteByID(ctx, mut.Table, mut.RecordID)
	default:
		return errors.New("queue: unknown mutation variant")
	}
}

// Clear empties the queue and erases the durable copy. Used on explicit
// sign-out only. Safe to call repeatedly.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = nil
	return q.store.Delete(ctx, q.key)
}

// Len reports the number of pending actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Pending returns a snapshot of the queued actions in enqueue order.
func (q *Queue) Pending() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Action, len(q.actions))
	copy(out, q.actions)
	return out
}

// Close detaches the queue from the connectivity monitor. Pending actions
// stay in the durable store for the next process.
func (q *Queue) Close() {
	if q.unsubscribe != nil {
		q.unsubscribe()
	}
}

// persistLocked writes the full queue to the durable store. Callers hold
// the queue lock, so persisted snapshots are never interleaved.
func (q *Queue) persistLocked(ctx context.Context) {
	actions := q.actions
	if actions == nil {
		actions = []Action{}
	}
	data, err := json.Marshal(actions)
	if err != nil {
		q.logger.Warn("queue: could not encode durable copy", "error", err)
		return
	}
	if err := q.store.Set(ctx, q.key, data); err != nil {
		q.logger.Warn("queue: could not persist durable copy", "error", err)
	}
}
