package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	Mt "github.com/maroda/meter/types"
)

// InMemoryPath opens the journal without touching disk
const InMemoryPath = ":memory:"

// startState is not an interpretation, reaching it is not journaled
const startState = "start"

// BadgerJournal records each newly reached interpretation as an Outcome.
// Repeated draws of the same state are one outcome. Nothing is ever read
// back into a session, the journal is for review.
type BadgerJournal struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []*Mt.Outcome
	Clock     func() time.Time // timestamps outcomes, time.Now unless set
	last      string           // state of the previous snapshot
	seq       uint64           // next outcome sequence number
}

func NewBadgerJournal(path string, batchSize int) (*BadgerJournal, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1)
	if path == InMemoryPath {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	if batchSize < 1 {
		batchSize = 1
	}

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerJournal failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	seq, err := nextSeq(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerJournal opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize),
		slog.Uint64("seq", seq))

	return &BadgerJournal{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]*Mt.Outcome, 0, batchSize),
		Clock:     time.Now,
		seq:       seq,
	}, nil
}

// nextSeq continues the sequence of an existing journal
func nextSeq(db *badger.DB) (uint64, error) {
	var seq uint64
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// no outcome key sorts after this one
		it.Seek(bytes.Repeat([]byte{0xff}, outcomeKeyLen))
		if it.Valid() {
			if key := it.Item().Key(); len(key) == outcomeKeyLen {
				seq = binary.BigEndian.Uint64(key[8:]) + 1
			}
		}
		return nil
	})
	return seq, err
}

// WriteSnapshot queues an Outcome when the state differs from the last one,
// when batchsize is reached, it calls WriteBatch with the new batch
func (bj *BadgerJournal) WriteSnapshot(snap Mt.Snapshot) error {
	bj.MU.Lock()
	defer bj.MU.Unlock()

	if snap.State == bj.last {
		return nil
	}
	bj.last = snap.State
	if snap.State == startState {
		return nil
	}

	o := NewOutcome(snap, bj.now())
	o.Seq = bj.seq
	bj.seq++
	bj.Buffer = append(bj.Buffer, o)
	if len(bj.Buffer) >= bj.BatchSize {
		return bj.flushLocked() // private Flush that does not lock
	}
	return nil
}

// NewOutcome keeps what a Snapshot concluded: its state, boundaries and markers
func NewOutcome(snap Mt.Snapshot, at time.Time) *Mt.Outcome {
	markers := make(map[string]float64)
	for name, m := range map[string]*float64{
		"hiatus": snap.Hiatus,
		"accel":  snap.Accel,
		"decel":  snap.Decel,
		"parens": snap.Parens,
		"accent": snap.Accent,
	} {
		if m != nil {
			markers[name] = *m
		}
	}
	return &Mt.Outcome{
		State:     snap.State,
		Points:    append([]float64(nil), snap.Points...),
		Markers:   markers,
		Timestamp: at,
	}
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bj *BadgerJournal) WriteBatch(outcomes []*Mt.Outcome) error {
	wb := bj.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, o := range outcomes {
		v, err := OutcomeEncode(o)
		if err != nil {
			return fmt.Errorf("outcome encode error: %w", err)
		}
		if err := wb.Set(OutcomeKey(o), v); err != nil {
			slog.Error("BadgerJournal failed to set key in batch",
				slog.Any("error", err),
				slog.Time("outcomeTime", o.Timestamp),
				slog.String("state", o.State))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerJournal failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush is the public method that blocks,
// it sends data to WriteBatch and then clears the buffer
func (bj *BadgerJournal) Flush() error {
	bj.MU.Lock()
	defer bj.MU.Unlock()

	if len(bj.Buffer) == 0 {
		return nil
	}
	return bj.flushLocked()
}

// flushLocked mimics Flush without locking, called by WriteSnapshot
func (bj *BadgerJournal) flushLocked() error {
	err := bj.WriteBatch(bj.Buffer) // Delegate to WriteBatch
	bj.Buffer = bj.Buffer[:0]       // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bj *BadgerJournal) Close() error {
	bj.MU.Lock()
	slog.Info("BadgerJournal closing, flushing buffer",
		slog.Int("bufferSize", len(bj.Buffer)))
	bj.MU.Unlock()

	flushErr := bj.Flush()
	closeErr := bj.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerJournal failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %w", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerJournal failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %w", closeErr)
	}

	slog.Info("BadgerJournal closed successfully")
	return nil
}

func (bj *BadgerJournal) Type() string { return "BadgerDB" }

func (bj *BadgerJournal) now() time.Time {
	if bj.Clock == nil {
		return time.Now()
	}
	return bj.Clock()
}

const outcomeKeyLen = 8 + 8

// OutcomeKey creates a composite key: timestamp + sequence number.
// Outcomes stamped in the same instant stay distinct and keep their order.
func OutcomeKey(o *Mt.Outcome) []byte {
	key := make([]byte, outcomeKeyLen)

	// Using positive BigEndian integer to convert timestamp
	// so keys can be sorted chronologically by BadgerDB
	binary.BigEndian.PutUint64(key[0:8], uint64(o.Timestamp.UnixNano()))
	binary.BigEndian.PutUint64(key[8:], o.Seq)

	return key
}

// OutcomeEncode serializes the outcome for data storage
func OutcomeEncode(o *Mt.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	err := enc.Encode(o)
	return buf.Bytes(), err
}

// OutcomeDecode deserializes the outcome data
func OutcomeDecode(data []byte) (*Mt.Outcome, error) {
	var o Mt.Outcome
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	err := dec.Decode(&o)
	return &o, err
}

// QueryRange retrieves outcomes with start <= Timestamp < end, oldest first.
// Buffered outcomes are flushed first so the query sees them.
func (bj *BadgerJournal) QueryRange(start, end time.Time) ([]*Mt.Outcome, error) {
	if err := bj.Flush(); err != nil {
		return nil, err
	}

	var outcomes []*Mt.Outcome
	seek := make([]byte, 8)
	binary.BigEndian.PutUint64(seek, uint64(start.UnixNano()))

	// db.View() callback
	// BadgerDB provides a transaction in which to get item.Value()
	err := bj.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		// keys sort by time, so start at the first one in range
		for it.Seek(seek); it.Valid(); it.Next() {
			item := it.Item()

			var o *Mt.Outcome
			// item.Value() callback
			// BadgerDB passes bytes to the anon func
			err := item.Value(func(val []byte) error {
				var err error
				o, err = OutcomeDecode(val)
				if err != nil {
					slog.Error("BadgerJournal failed to decode outcome", slog.Any("error", err))
					return fmt.Errorf("outcome decode error: %w", err)
				}
				return nil
			})
			if err != nil {
				slog.Error("BadgerJournal callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}

			if !o.Timestamp.Before(end) {
				break
			}
			outcomes = append(outcomes, o)
		}
		return nil
	})

	slog.Debug("BadgerJournal QueryRange", slog.Int("count", len(outcomes)))

	return outcomes, err
}
