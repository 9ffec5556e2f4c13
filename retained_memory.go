package mqlite

import "sync"

// MemoryRetainedStore is an in-memory RetainedStore. Entries live for
// the broker process lifetime.
type MemoryRetainedStore struct {
	mu       sync.RWMutex
	messages map[string]*RetainedMessage
}

// NewMemoryRetainedStore creates an empty in-memory retained store.
func NewMemoryRetainedStore() *MemoryRetainedStore {
	return &MemoryRetainedStore{
		messages: make(map[string]*RetainedMessage),
	}
}

// Set stores or overwrites the retained message for msg.Topic. An
// empty payload deletes the entry.
func (s *MemoryRetainedStore) Set(msg *RetainedMessage) error {
	if err := ValidateTopicName(msg.Topic); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(msg.Payload) == 0 {
		delete(s.messages, msg.Topic)
		return nil
	}

	s.messages[msg.Topic] = msg
	return nil
}

// Get returns the retained message for an exact topic.
func (s *MemoryRetainedStore) Get(topic string) (*RetainedMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[topic]
	return msg, ok
}

// Delete removes the entry for topic, reporting whether it existed.
func (s *MemoryRetainedStore) Delete(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[topic]; !ok {
		return false
	}
	delete(s.messages, topic)
	return true
}

// Count returns the number of retained messages.
func (s *MemoryRetainedStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Close releases nothing for the in-memory store.
func (s *MemoryRetainedStore) Close() error {
	return nil
}
