package circuitbreaker

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func TestNew_TripsAfterMaxFailures(t *testing.T) {
	cfg := DefaultConfig("kv")
	cfg.MaxFailures = 3
	cfg.OpenTimeout = time.Minute
	cb := New[string](cfg, quietLogger())

	calls := 0
	fail := func() (string, error) {
		calls++
		return "", errBackend
	}

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(fail)
		require.ErrorIs(t, err, errBackend)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(fail)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls, "open breaker must not call through")
}

func TestNew_IsSuccessfulKeepsBreakerClosed(t *testing.T) {
	errExpected := errors.New("not found")
	cfg := DefaultConfig("kv")
	cfg.MaxFailures = 1
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errExpected)
	}
	cb := New[string](cfg, quietLogger())

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (string, error) { return "", errExpected })
		require.ErrorIs(t, err, errExpected)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNew_HalfOpenRecovers(t *testing.T) {
	cfg := DefaultConfig("kv")
	cfg.MaxFailures = 1
	cfg.OpenTimeout = 20 * time.Millisecond
	cb := New[string](cfg, quietLogger())

	_, err := cb.Execute(func() (string, error) { return "", errBackend })
	require.ErrorIs(t, err, errBackend)
	require.Equal(t, gobreaker.StateOpen, cb.State())

	require.Eventually(t, func() bool {
		return cb.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	v, err := cb.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
