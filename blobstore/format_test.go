package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"snap_099.cells", Format{"cells", "application/octet-stream"}},
		{"mock/SNAP.JSON", Format{"json", "application/json"}},
		{"rays.txt", Format{"raw", "application/octet-stream"}},
		{"noext", Format{"raw", "application/octet-stream"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOf(tt.name))
		})
	}
}

func TestRange(t *testing.T) {
	last, ok := Range(10, 8, 5)
	assert.True(t, ok)
	assert.Equal(t, int64(9), last)

	last, ok = Range(10, 0, 10)
	assert.True(t, ok)
	assert.Equal(t, int64(9), last)

	_, ok = Range(10, 10, 1)
	assert.False(t, ok)
	_, ok = Range(10, -1, 1)
	assert.False(t, ok)
	_, ok = Range(10, 2, 0)
	assert.False(t, ok)
}
