package theme

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInitDefaultsToDark(t *testing.T) {
	m := NewManager(NewFileStore(filepath.Join(t.TempDir(), "prefs.json")), nil)
	got, err := m.Init()
	require.NoError(t, err)
	assert.Equal(t, Dark, got)
	assert.Equal(t, Dark, m.Current())
}

func TestInitReadsPersistedPreference(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, store.Set(PreferenceKey, "light"))

	m := NewManager(store, nil)
	got, err := m.Init()
	require.NoError(t, err)
	assert.Equal(t, Light, got)
}

func TestInitIgnoresUnknownPreference(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, store.Set(PreferenceKey, "sepia"))

	got, err := NewManager(store, nil).Init()
	require.NoError(t, err)
	assert.Equal(t, Dark, got)
}

func TestInitReportsCorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got, err := NewManager(NewFileStore(path), nil).Init()
	assert.Error(t, err)
	assert.Equal(t, Dark, got)
}

func TestTogglePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "prefs.json")
	m := NewManager(NewFileStore(path), nil)
	_, err := m.Init()
	require.NoError(t, err)

	updates, cancel := m.Subscribe()
	defer cancel()

	got, err := m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Light, got)
	assert.Equal(t, Light, <-updates)

	got, err = m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Dark, got)
	assert.Equal(t, Dark, <-updates)

	reloaded := NewManager(NewFileStore(path), nil)
	persisted, err := reloaded.Init()
	require.NoError(t, err)
	assert.Equal(t, Dark, persisted)
}

func TestCancelClosesSubscription(t *testing.T) {
	m := NewManager(nil, nil)
	updates, cancel := m.Subscribe()
	cancel()
	cancel()

	_, open := <-updates
	assert.False(t, open)

	_, err := m.Toggle()
	require.NoError(t, err)
}

func TestSlowSubscriberDoesNotBlockToggle(t *testing.T) {
	m := NewManager(nil, nil)
	_, cancel := m.Subscribe()
	defer cancel()

	for i := 0; i < 20; i++ {
		_, err := m.Toggle()
		require.NoError(t, err)
	}
	assert.Equal(t, Dark, m.Current())
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "#ffffff", PaletteFor(Light).Background)
	assert.Equal(t, "#0f172a", PaletteFor(Dark).Background)
	assert.Equal(t, PaletteFor(Dark), PaletteFor(Theme("neon")))
	assert.Contains(t, PaletteFor(Dark).CSSVariables(), "--brand-card:#1e293b;")
}

// gatedStore holds every write of the light theme until gate is closed
type gatedStore struct {
	mu      sync.Mutex
	values  map[string]string
	entered chan struct{}
	gate    chan struct{}
}

func (s *gatedStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *gatedStore) Set(key, value string) error {
	if value == string(Light) {
		s.entered <- struct{}{}
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func TestConcurrentTogglesPersistInOrder(t *testing.T) {
	store := &gatedStore{
		values:  map[string]string{},
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	m := NewManager(store, nil)
	_, err := m.Init()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = m.Toggle()
	}()
	<-store.entered

	second := make(chan struct{})
	go func() {
		defer wg.Done()
		defer close(second)
		_, _ = m.Toggle()
	}()

	// the second toggle must wait for the first write to finish
	overtook := false
	select {
	case <-second:
		overtook = true
	case <-time.After(50 * time.Millisecond):
	}
	close(store.gate)
	wg.Wait()

	assert.False(t, overtook, "second toggle finished while the first was still saving")

	persisted, ok, err := store.Get(PreferenceKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Dark, m.Current())
	assert.Equal(t, string(m.Current()), persisted)
}
