package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/echoprint/go/pkg/kv"
)

// ErrNotFound is returned by Get for an unknown record ID.
var ErrNotFound = errors.New("history: record not found")

// Journal stores pass records in a kv.Store.
type Journal struct {
	store kv.Store
}

// NewJournal returns a Journal over store. The caller owns the store.
func NewJournal(store kv.Store) *Journal {
	return &Journal{store: store}
}

// recordKey returns {"pass", YYYYMMDD, ts_ns, id}.
func recordKey(rec Record) kv.Key {
	t := rec.StartedAt.UTC()
	return kv.Key{"pass", t.Format("20060102"), fmt.Sprintf("%020d", t.UnixNano()), rec.ID}
}

func pidKey(id string) kv.Key {
	return kv.Key{"pid", id}
}

// Save writes rec. Saving a record with an existing ID replaces it.
func (j *Journal) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("history: record ID is required")
	}
	if strings.ContainsRune(rec.ID, rune(kv.DefaultSeparator)) {
		return fmt.Errorf("history: invalid record ID %q", rec.ID)
	}
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: encode record: %w", err)
	}

	key := recordKey(rec)
	entries := []kv.Entry{
		{Key: key, Value: data},
		{Key: pidKey(rec.ID), Value: []byte(strings.Join(key[1:], string(kv.DefaultSeparator)))},
	}
	var stale []kv.Key
	if old, err := j.lookup(ctx, rec.ID); err == nil && old.String() != key.String() {
		stale = append(stale, old)
	}
	if err := j.store.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("history: save %s: %w", rec.ID, err)
	}
	if len(stale) > 0 {
		return j.store.BatchDelete(ctx, stale)
	}
	return nil
}

// lookup resolves an ID through the reverse index.
func (j *Journal) lookup(ctx context.Context, id string) (kv.Key, error) {
	v, err := j.store.Get(ctx, pidKey(id))
	if err != nil {
		return nil, err
	}
	return append(kv.Key{"pass"}, strings.Split(string(v), string(kv.DefaultSeparator))...), nil
}

// Get returns the record with the given ID.
func (j *Journal) Get(ctx context.Context, id string) (Record, error) {
	key, err := j.lookup(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	data, err := j.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("history: decode %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit records, newest first. A limit <= 0 returns all
// of them. Malformed entries are skipped.
func (j *Journal) List(ctx context.Context, limit int) ([]Record, error) {
	var recs []Record
	for entry, err := range j.store.List(ctx, kv.Key{"pass"}, kv.ListOptions{Reverse: true}) {
		if err != nil {
			return nil, err
		}
		var rec Record
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			continue
		}
		recs = append(recs, rec)
		if limit > 0 && len(recs) >= limit {
			break
		}
	}
	return recs, nil
}

// Prune deletes all but the newest keep records and returns how many were
// removed. A keep <= 0 leaves the journal unchanged.
func (j *Journal) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	var keys []kv.Key
	n := 0
	for entry, err := range j.store.List(ctx, kv.Key{"pass"}, kv.ListOptions{Reverse: true}) {
		if err != nil {
			return 0, err
		}
		n++
		if n <= keep {
			continue
		}
		keys = append(keys, entry.Key)
		if id := entry.Key[len(entry.Key)-1]; id != "" {
			keys = append(keys, pidKey(id))
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := j.store.BatchDelete(ctx, keys); err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return n - keep, nil
}
