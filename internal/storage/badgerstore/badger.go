// Package badgerstore keeps the catalog in an embedded badger key-value store.
//
// Layout:
//   - rec:<seq>                      JSON record
//   - match:<len><matchID><seq>      empty index entry
//
// seq is a big-endian uint64 from a badger sequence, so key order is append
// order. len is the big-endian uint32 byte length of matchID, which keeps one
// match's prefix from matching any other match id.
package badgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/types/media"
)

const (
	recPrefix   = "rec:"
	matchPrefix = "match:"
	seqKey      = "seq:videos"
	seqLease    = 100
)

type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	return open(badger.DefaultOptions(dir).WithLogger(nil))
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, err)
	}
	seq, err := db.GetSequence([]byte(seqKey), seqLease)
	if err != nil {
		db.Close()
		return nil, types.Wrap(types.ErrStorage, err)
	}
	return &Store{db: db, seq: seq}, nil
}

func recKey(seq uint64) []byte {
	key := make([]byte, len(recPrefix)+8)
	copy(key, recPrefix)
	binary.BigEndian.PutUint64(key[len(recPrefix):], seq)
	return key
}

func matchKeyPrefix(matchID string) []byte {
	key := make([]byte, 0, len(matchPrefix)+4+len(matchID)+8)
	key = append(key, matchPrefix...)
	key = binary.BigEndian.AppendUint32(key, uint32(len(matchID)))
	return append(key, matchID...)
}

func (s *Store) Append(_ context.Context, rec media.VideoRecord) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode video: %w", err)
	}

	seq, err := s.seq.Next()
	if err != nil {
		return types.Wrap(types.ErrStorage, err)
	}

	idx := append(matchKeyPrefix(rec.MatchID), recKey(seq)[len(recPrefix):]...)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recKey(seq), buf); err != nil {
			return err
		}
		return txn.Set(idx, nil)
	})
	if err != nil {
		return types.Wrap(types.ErrStorage, fmt.Errorf("write video: %w", err))
	}
	return nil
}

func (s *Store) ListByMatch(_ context.Context, matchID string) ([]media.VideoRecord, error) {
	prefix := matchKeyPrefix(matchID)
	records := make([]media.VideoRecord, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if len(key) != len(prefix)+8 {
				continue
			}
			seq := binary.BigEndian.Uint64(key[len(prefix):])
			item, err := txn.Get(recKey(seq))
			if err != nil {
				return err
			}
			rec, err := decode(item)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, err)
	}
	return records, nil
}

func (s *Store) All(_ context.Context) ([]media.VideoRecord, error) {
	prefix := []byte(recPrefix)
	records := make([]media.VideoRecord, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rec, err := decode(it.Item())
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, err)
	}
	return records, nil
}

func decode(item *badger.Item) (media.VideoRecord, error) {
	var rec media.VideoRecord
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
