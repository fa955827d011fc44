package domain

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file type or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMissingCredential indicates an API key is required but not set.
	ErrMissingCredential = errors.New("missing credential")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingMismatch indicates stored embeddings were produced by a
	// different model or have a different dimensionality than the query.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrCorruptEmbedding indicates a stored embedding blob could not be decoded.
	ErrCorruptEmbedding = errors.New("corrupt embedding")

	// ErrEmptyInput indicates an input document contained no text.
	ErrEmptyInput = errors.New("empty input")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx response from an upstream model provider.
type APIError struct {
	// Service names the provider, e.g. "openai".
	Service string

	// StatusCode is the HTTP status.
	StatusCode int

	// Body is the response body, kept for diagnostics.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Body)
}

// Transient reports whether the request may succeed if retried.
func (e *APIError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Unwrap maps rate limiting onto ErrRateLimited.
func (e *APIError) Unwrap() error {
	if e.StatusCode == 429 {
		return ErrRateLimited
	}
	return nil
}

// IsTransient reports whether err is worth retrying: throttling, server
// errors, timeouts and dropped connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
