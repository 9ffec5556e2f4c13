package mqlite

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerRetainedStore is a RetainedStore backed by a Badger database,
// so retained messages survive a broker restart. Values are stored as
// one QoS byte followed by the payload.
type BadgerRetainedStore struct {
	db *badger.DB
}

// OpenBadgerRetainedStore opens (or creates) a Badger-backed retained
// store in dir.
func OpenBadgerRetainedStore(dir string) (*BadgerRetainedStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerRetainedStore{db: db}, nil
}

// Set stores or overwrites the retained message for msg.Topic. An
// empty payload deletes the entry.
func (s *BadgerRetainedStore) Set(msg *RetainedMessage) error {
	if err := ValidateTopicName(msg.Topic); err != nil {
		return err
	}

	if len(msg.Payload) == 0 {
		s.Delete(msg.Topic)
		return nil
	}

	value := make([]byte, 1+len(msg.Payload))
	value[0] = msg.QoS
	copy(value[1:], msg.Payload)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(msg.Topic), value)
	})
}

// Get returns the retained message for an exact topic.
func (s *BadgerRetainedStore) Get(topic string) (*RetainedMessage, bool) {
	var msg *RetainedMessage

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(topic))
		if err != nil {
			return err
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(value) == 0 {
			return badger.ErrKeyNotFound
		}

		msg = &RetainedMessage{
			Topic:   topic,
			QoS:     value[0],
			Payload: value[1:],
		}
		return nil
	})
	if err != nil {
		return nil, false
	}

	return msg, true
}

// Delete removes the entry for topic, reporting whether it existed.
func (s *BadgerRetainedStore) Delete(topic string) bool {
	existed := false

	s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(topic)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete([]byte(topic))
	})

	return existed
}

// Count returns the number of retained messages.
func (s *BadgerRetainedStore) Count() int {
	count := 0

	s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	return count
}

// Close closes the underlying database.
func (s *BadgerRetainedStore) Close() error {
	return s.db.Close()
}
