package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/tspswarm/internal/optimization"
)

func TestErrorString(t *testing.T) {
	err := New(ErrNotFound, "job 42").WithOperation("status").WithComponent("server")
	assert.Equal(t, "job 42: operation=status, component=server: not found", err.Error())
	assert.NotEmpty(t, err.StackTrace())
}

func TestWrapKeepsChain(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))

	inner := New(ErrConflict, "job finished")
	outer := Wrapf(inner, "cancel %s", "abc")
	assert.True(t, Is(outer, ErrConflict))
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, "job finished", inner.Message, "wrapping must not rewrite the inner error")

	var target *Error
	require.True(t, As(fmt.Errorf("ctx: %w", outer), &target))
	assert.Same(t, outer, target)
	assert.Equal(t, inner, Unwrap(outer))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", New(ErrNotFound, "x"), http.StatusNotFound},
		{"conflict", Wrap(New(ErrConflict, "x"), "y"), http.StatusConflict},
		{"unavailable", New(ErrUnavailable, "x"), http.StatusServiceUnavailable},
		{"bad request", New(ErrBadRequest, "x"), http.StatusBadRequest},
		{"invalid graph", optimization.NewError(optimization.ErrInvalidGraph, "x"), http.StatusBadRequest},
		{"invalid population", Wrap(optimization.NewError(optimization.ErrInvalidPopulation, "x"), "y"), http.StatusBadRequest},
		{"invalid config", optimization.NewError(optimization.ErrInvalidConfig, "x"), http.StatusBadRequest},
		{"cancelled", context.Canceled, http.StatusInternalServerError},
		{"other", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("swarm exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/solve?x=1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	entries := logs.FilterMessage("Recovered from panic").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "swarm exploded", entries[0].ContextMap()["error"])
	assert.Equal(t, "/api/v1/solve", entries[0].ContextMap()["path"])
}

func TestErrorHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := ErrorHandler(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	entries := logs.FilterMessage("Request error").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, http.StatusBadRequest, entries[0].ContextMap()["status"])
}
