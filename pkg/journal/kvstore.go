package journal

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/manager"

	"github.com/luxfi/lob-matcher/pkg/engine"
)

// KVStore is a durable, randomly-addressable mirror of the message
// journal on top of BadgerDB: a manager.Manager over a data directory,
// falling back to an in-memory database if Badger can't be opened.
// BinaryCodec's flat file is the fast path for a full sequential
// replay; KVStore exists for lookups by sequence number without
// reading the whole file.
type KVStore struct {
	db  database.Database
	seq uint64
}

// OpenKVStore opens (or creates) a BadgerDB-backed journal store rooted
// at dataDir, namespaced so multiple engines can share one data
// directory.
func OpenKVStore(dataDir, namespace string) (*KVStore, error) {
	dbManager := manager.NewManager(dataDir, nil)

	dbConfig := manager.DefaultBadgerDBConfig("badgerdb")
	dbConfig.Namespace = namespace

	db, err := dbManager.New(dbConfig)
	if err != nil {
		memConfig := manager.DefaultMemoryConfig()
		db, err = dbManager.New(memConfig)
		if err != nil {
			return nil, fmt.Errorf("journal: failed to open database: %w", err)
		}
	}

	seq, err := restoreSequence(db)
	if err != nil {
		return nil, err
	}
	return &KVStore{db: db, seq: seq}, nil
}

// Append writes msg under the next sequence key and returns that
// sequence number.
func (s *KVStore) Append(msg engine.OrderMessage) (uint64, error) {
	var rec [recordSize]byte
	engine.Encode(rec[:], msg)

	key := sequenceKey(s.seq)
	if err := s.db.Put(key, rec[:]); err != nil {
		return 0, err
	}
	seq := s.seq
	s.seq++
	return seq, nil
}

// Get reads back the message stored at sequence seq.
func (s *KVStore) Get(seq uint64) (engine.OrderMessage, error) {
	raw, err := s.db.Get(sequenceKey(seq))
	if err != nil {
		return engine.OrderMessage{}, err
	}
	var rec [recordSize]byte
	copy(rec[:], raw)
	return engine.Decode(rec[:]), nil
}

// Len returns the number of appended records.
func (s *KVStore) Len() uint64 { return s.seq }

// ReplayAll reads every record in sequence order, for callers that want
// KVStore's durability without BinaryCodec's flat-file format.
func (s *KVStore) ReplayAll() ([]engine.OrderMessage, error) {
	out := make([]engine.OrderMessage, 0, s.seq)
	for i := uint64(0); i < s.seq; i++ {
		msg, err := s.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *KVStore) Close() error { return s.db.Close() }

const seqCountKey = "lob:journal:seq"

func sequenceKey(seq uint64) []byte {
	key := make([]byte, len(seqCountKey)+8)
	copy(key, seqCountKey)
	binary.BigEndian.PutUint64(key[len(seqCountKey):], seq)
	return key
}

// restoreSequence scans for the next unused sequence number so an
// engine reopening an existing store resumes appending after the last
// record instead of overwriting it.
func restoreSequence(db database.Database) (uint64, error) {
	iter := db.NewIteratorWithPrefix([]byte(seqCountKey))
	defer iter.Release()

	var count uint64
	for iter.Next() {
		count++
	}
	return count, iter.Error()
}
