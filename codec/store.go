package codec

import (
	"fmt"
	"os"
	"time"

	bstd "github.com/deneonet/benc/std"
	"github.com/estraier/tkrzw-go"

	"github.com/zond/wiremesh"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/wire"
)

// Store is the on-disk hot-reload store for compiled wires, keyed by wire
// name. It wraps a tkrzw hash database; the record written into each slot
// is a small benc-encoded envelope {name, contentHash, updatedAt, payload}
// around the Codec's own Wire bytes. The payload is already framed by the
// Wire layout, so only the envelope needs a format, and it's simple enough
// to hand-marshal with bstd primitives.
type Store struct {
	codec *Codec
	dbm   *tkrzw.DBM
}

// record is the envelope wrapping one stored wire. Not exported: callers
// see *wire.Wire in and out of the Store, never this.
type record struct {
	Name          string
	ContentHash   string // 16 raw bytes
	UpdatedAtUnix uint64
	Payload       string // codec.EncodeWire bytes
}

func (r *record) size() int {
	return bstd.SizeString(r.Name) + bstd.SizeString(r.ContentHash) + bstd.SizeUint64() + bstd.SizeString(r.Payload)
}

func (r *record) marshal() []byte {
	b := make([]byte, r.size())
	n := bstd.MarshalString(0, b, r.Name)
	n = bstd.MarshalString(n, b, r.ContentHash)
	n = bstd.MarshalUint64(n, b, r.UpdatedAtUnix)
	bstd.MarshalString(n, b, r.Payload)
	return b
}

func unmarshalRecord(b []byte) (*record, error) {
	n, name, err := bstd.UnmarshalString(0, b)
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	n, hash, err := bstd.UnmarshalString(n, b)
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	n, ts, err := bstd.UnmarshalUint64(n, b)
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	_, payload, err := bstd.UnmarshalString(n, b)
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	return &record{Name: name, ContentHash: hash, UpdatedAtUnix: ts, Payload: payload}, nil
}

// checkStatus translates a tkrzw status into a Go error, mapping "not
// found" onto os.ErrNotExist.
func checkStatus(stat *tkrzw.Status, notFoundMsg string) error {
	if stat.GetCode() == tkrzw.StatusNotFoundError {
		return wiremesh.WithStack(fmt.Errorf("%s: %w", notFoundMsg, os.ErrNotExist))
	}
	if !stat.IsOK() {
		return wiremesh.WithStack(stat)
	}
	return nil
}

// OpenStore opens (or creates) the hash database at path+".tkh" (grounded
// on storage/dbm.OpenHash's update/restore mode choices) and returns a
// Store whose Codec reconstructs shards via reg.
func OpenStore(path string, reg *shard.Registry) (*Store, error) {
	dbm := tkrzw.NewDBM()
	stat := dbm.Open(fmt.Sprintf("%s.tkh", path), true, map[string]string{
		"update_mode":      "UPDATE_APPENDING",
		"record_comp_mode": "RECORD_COMP_NONE",
		"restore_mode":     "RESTORE_SYNC|RESTORE_NO_SHORTCUTS|RESTORE_WITH_HARDSYNC",
	})
	if !stat.IsOK() {
		return nil, wiremesh.WithStack(stat)
	}
	return &Store{codec: New(reg), dbm: dbm}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	if stat := s.dbm.Close(); !stat.IsOK() {
		return wiremesh.WithStack(stat)
	}
	return nil
}

// Put compiles w to its canonical bytes and stores it under w.WireName(),
// overwriting any prior record of the same name (hot-reload's write path).
func (s *Store) Put(w *wire.Wire) error {
	payload, err := s.codec.EncodeWire(w)
	if err != nil {
		return wiremesh.WithStack(err)
	}
	h := w.Hash()
	rec := &record{
		Name:          w.WireName(),
		ContentHash:   string(h[:]),
		UpdatedAtUnix: uint64(time.Now().Unix()),
		Payload:       string(payload),
	}
	if stat := s.dbm.Set(w.WireName(), rec.marshal(), true); !stat.IsOK() {
		return wiremesh.WithStack(stat)
	}
	return nil
}

// Get loads and decodes the wire last stored under name. Returns an error
// wrapping os.ErrNotExist if no such record exists (hot-reload's read
// path, and the file watcher's "did this wire change" poll can compare
// against the returned wire's own Hash()).
func (s *Store) Get(name string) (*wire.Wire, error) {
	b, stat := s.dbm.Get(name)
	if err := checkStatus(stat, fmt.Sprintf("wire %q", name)); err != nil {
		return nil, err
	}
	rec, err := unmarshalRecord(b)
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	return s.codec.DecodeWire([]byte(rec.Payload))
}

// Has reports whether name has a stored record.
func (s *Store) Has(name string) bool { return s.dbm.Check(name) }

// Delete removes the record stored under name.
func (s *Store) Delete(name string) error {
	return checkStatus(s.dbm.Remove(name), fmt.Sprintf("wire %q", name))
}

// Names lists every wire name currently stored.
func (s *Store) Names() []string {
	iter := s.dbm.MakeIterator()
	defer iter.Destruct()
	iter.First()
	var out []string
	for {
		key, _, status := iter.Get()
		if status.GetCode() == tkrzw.StatusNotFoundError {
			break
		}
		if !status.IsOK() {
			break
		}
		out = append(out, string(key))
		iter.Next()
	}
	return out
}
