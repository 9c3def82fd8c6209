package backend

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remsort/internal/identify"
	"remsort/internal/models"
)

type stubBackend struct {
	name   string
	result identify.Result
	closed bool
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Identify(ctx context.Context, text string) (identify.Result, error) {
	return s.result, nil
}

func (s *stubBackend) Close() error {
	s.closed = true
	return nil
}

func stubFactory(backends map[string]*stubBackend) Factory {
	return func(name string) (Backend, error) {
		b, ok := backends[name]
		if !ok {
			return nil, fmt.Errorf("backend %q cannot initialize", name)
		}
		return b, nil
	}
}

func TestManagerSwitch(t *testing.T) {
	good := &stubBackend{name: "good", result: identify.Result{Category: "Ortopedi", Confidence: 80, Source: identify.SourceExternalModel}}
	m := NewManager(stubFactory(map[string]*stubBackend{"good": good}))

	require.NoError(t, m.Switch("good"))
	assert.Equal(t, "good", m.Active())

	res, err := m.Identify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "Ortopedi", res.Category)
}

func TestManagerSwitchFailureKeepsPrevious(t *testing.T) {
	good := &stubBackend{name: "good"}
	m := NewManager(stubFactory(map[string]*stubBackend{"good": good}))
	require.NoError(t, m.Switch("good"))

	err := m.Switch("broken")
	require.Error(t, err)
	assert.Equal(t, "good", m.Active())
	assert.False(t, good.closed)
}

func TestManagerDeactivate(t *testing.T) {
	good := &stubBackend{name: "good"}
	m := NewManager(stubFactory(map[string]*stubBackend{"good": good}))
	require.NoError(t, m.Switch("good"))

	require.NoError(t, m.Switch(""))
	assert.Equal(t, "", m.Active())
	assert.True(t, good.closed)

	res, err := m.Identify(context.Background(), "text")
	assert.ErrorIs(t, err, models.ErrNoBackend)
	assert.Equal(t, identify.NoOpinion(), res)
}

type blockingBackend struct {
	started chan struct{}
	release chan struct{}
	closed  chan struct{}
}

func (b *blockingBackend) Name() string { return "blocking" }

func (b *blockingBackend) Identify(ctx context.Context, text string) (identify.Result, error) {
	close(b.started)
	<-b.release
	return identify.NoOpinion(), nil
}

func (b *blockingBackend) Close() error {
	close(b.closed)
	return nil
}

func TestSwitchWaitsForInFlightIdentify(t *testing.T) {
	blocking := &blockingBackend{
		started: make(chan struct{}),
		release: make(chan struct{}),
		closed:  make(chan struct{}),
	}
	m := NewManager(func(name string) (Backend, error) { return blocking, nil })
	require.NoError(t, m.Switch("blocking"))

	identifyDone := make(chan struct{})
	go func() {
		defer close(identifyDone)
		_, err := m.Identify(context.Background(), "text")
		assert.NoError(t, err)
	}()
	<-blocking.started

	switchDone := make(chan struct{})
	go func() {
		defer close(switchDone)
		assert.NoError(t, m.Switch(""))
	}()

	// The switch must not close the backend while Identify is still inside it.
	select {
	case <-blocking.closed:
		t.Fatal("backend closed while a classification was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(blocking.release)
	<-identifyDone
	<-switchDone

	select {
	case <-blocking.closed:
	default:
		t.Fatal("previous backend was never closed")
	}
	assert.Equal(t, "", m.Active())
}

func TestManagerNoBackendByDefault(t *testing.T) {
	m := NewManager(stubFactory(nil))
	_, err := m.Identify(context.Background(), "text")
	assert.ErrorIs(t, err, models.ErrNoBackend)
}

func TestManagerSuggestRequiresPromptBackend(t *testing.T) {
	good := &stubBackend{name: "good"}
	m := NewManager(stubFactory(map[string]*stubBackend{"good": good}))
	require.NoError(t, m.Switch("good"))

	_, err := m.Suggest(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, models.ErrValidation)
}
