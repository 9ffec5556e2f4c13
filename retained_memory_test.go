package mqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRetainedStoreSetGet(t *testing.T) {
	store := NewMemoryRetainedStore()

	require.NoError(t, store.Set(&RetainedMessage{Topic: "t", Payload: []byte("x"), QoS: 1}))

	msg, ok := store.Get("t")
	require.True(t, ok)
	assert.Equal(t, "t", msg.Topic)
	assert.Equal(t, []byte("x"), msg.Payload)
	assert.Equal(t, byte(1), msg.QoS)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryRetainedStoreLastWriterWins(t *testing.T) {
	store := NewMemoryRetainedStore()

	require.NoError(t, store.Set(&RetainedMessage{Topic: "t", Payload: []byte("first")}))
	require.NoError(t, store.Set(&RetainedMessage{Topic: "t", Payload: []byte("second")}))

	msg, ok := store.Get("t")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), msg.Payload)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryRetainedStoreEmptyPayloadClears(t *testing.T) {
	store := NewMemoryRetainedStore()

	require.NoError(t, store.Set(&RetainedMessage{Topic: "t", Payload: []byte("x")}))
	require.NoError(t, store.Set(&RetainedMessage{Topic: "t"}))

	_, ok := store.Get("t")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count())
}

func TestMemoryRetainedStoreDelete(t *testing.T) {
	store := NewMemoryRetainedStore()

	require.NoError(t, store.Set(&RetainedMessage{Topic: "t", Payload: []byte("x")}))

	assert.True(t, store.Delete("t"))
	assert.False(t, store.Delete("t"))
}

func TestMemoryRetainedStoreRejectsInvalidTopic(t *testing.T) {
	store := NewMemoryRetainedStore()
	assert.Error(t, store.Set(&RetainedMessage{Topic: "a/+", Payload: []byte("x")}))
}
