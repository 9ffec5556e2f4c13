package mqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTopicName(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		wantErr error
	}{
		{name: "simple", topic: "x"},
		{name: "levels", topic: "sensors/kitchen/temp"},
		{name: "leading slash", topic: "/a"},
		{name: "utf8", topic: "датчики/кухня"},
		{name: "empty", topic: "", wantErr: ErrEmptyTopic},
		{name: "plus wildcard", topic: "a/+/b", wantErr: ErrInvalidTopicName},
		{name: "hash wildcard", topic: "a/#", wantErr: ErrInvalidTopicName},
		{name: "null byte", topic: "a\x00b", wantErr: ErrInvalidTopicName},
		{name: "invalid utf8", topic: string([]byte{0xFF, 0xFE}), wantErr: ErrInvalidTopicName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTopicName(tt.topic)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTopicFilter(t *testing.T) {
	assert.NoError(t, ValidateTopicFilter("a/b"))
	assert.ErrorIs(t, ValidateTopicFilter(""), ErrEmptyTopic)
	assert.ErrorIs(t, ValidateTopicFilter("a/+"), ErrTopicHasWildcard)
	assert.ErrorIs(t, ValidateTopicFilter("#"), ErrTopicHasWildcard)
	assert.ErrorIs(t, ValidateTopicFilter("a\x00"), ErrInvalidTopicFilter)
}
