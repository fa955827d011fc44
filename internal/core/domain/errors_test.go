package domain

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrMissingCredential", ErrMissingCredential},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrEmbeddingMismatch", ErrEmbeddingMismatch},
		{"ErrCorruptEmbedding", ErrCorruptEmbedding},
		{"ErrEmptyInput", ErrEmptyInput},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("item 42: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Contains(t, wrapped.Error(), "item 42")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestAPIError_Transient(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := &APIError{Service: "openai", StatusCode: tt.status, Body: "x"}
			assert.Equal(t, tt.transient, err.Transient())
			assert.Equal(t, tt.transient, IsTransient(fmt.Errorf("call: %w", err)))
		})
	}
}

func TestAPIError_RateLimitedUnwrap(t *testing.T) {
	err := &APIError{Service: "anthropic", StatusCode: 429}
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "anthropic API error (status 429)")

	other := &APIError{Service: "anthropic", StatusCode: 500}
	assert.NotErrorIs(t, other, ErrRateLimited)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(ErrInvalidInput))
	assert.True(t, IsTransient(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)))
	assert.True(t, IsTransient(fmt.Errorf("dial: %w", timeoutErr{})))
}
