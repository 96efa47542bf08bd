// Package theme holds the site-wide colour scheme preference.
package theme

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Theme is a colour scheme
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// Default is used when nothing valid is persisted
const Default = Dark

// PreferenceKey is the key the preference is stored under
const PreferenceKey = "theme"

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == Dark || t == Light
}

// Opposite returns the other theme
func (t Theme) Opposite() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// Palette is the set of CSS custom properties for a theme
type Palette struct {
	Primary    string `json:"primary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Secondary  string `json:"secondary"`
	Card       string `json:"card"`
	Border     string `json:"border"`
}

var palettes = map[Theme]Palette{
	Light: {
		Primary:    "#ef4444",
		Accent:     "#dc2626",
		Background: "#ffffff",
		Text:       "#1f2937",
		Secondary:  "#6b7280",
		Card:       "#f9fafb",
		Border:     "#e5e7eb",
	},
	Dark: {
		Primary:    "#ef4444",
		Accent:     "#dc2626",
		Background: "#0f172a",
		Text:       "#f8fafc",
		Secondary:  "#94a3b8",
		Card:       "#1e293b",
		Border:     "#334155",
	},
}

// PaletteFor returns the palette of t, or the default palette
func PaletteFor(t Theme) Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[Default]
}

// CSSVariables renders a palette as custom property declarations
func (p Palette) CSSVariables() string {
	return "--brand-primary:" + p.Primary +
		";--brand-accent:" + p.Accent +
		";--brand-background:" + p.Background +
		";--brand-text:" + p.Text +
		";--brand-secondary:" + p.Secondary +
		";--brand-card:" + p.Card +
		";--brand-border:" + p.Border + ";"
}

// Store persists string preferences
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Manager owns the current theme. Subscribers are told about every change.
type Manager struct {
	store  Store
	logger *zap.Logger

	// saveMu orders toggles so preferences are written in flip order
	saveMu sync.Mutex

	mu      sync.RWMutex
	current Theme
	subs    map[int]chan Theme
	nextID  int
}

// NewManager creates a manager backed by store. Call Init before use.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   store,
		logger:  logger.Named("theme"),
		current: Default,
		subs:    make(map[int]chan Theme),
	}
}

// Init loads the persisted preference. Missing or unknown values fall back
// to the default; a store read error is returned after falling back.
func (m *Manager) Init() (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = Default
	if m.store == nil {
		return m.current, nil
	}

	val, ok, err := m.store.Get(PreferenceKey)
	if err != nil {
		return m.current, errors.Wrap(err, "read theme preference")
	}
	if !ok {
		return m.current, nil
	}
	if t := Theme(val); t.Valid() {
		m.current = t
	} else {
		m.logger.Warn("Unknown theme preference, using default", zap.String("value", val))
	}
	return m.current, nil
}

// Current returns the active theme
func (m *Manager) Current() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Toggle switches between dark and light, persists the choice and
// notifies subscribers. The new theme is active even if persisting fails.
// Concurrent toggles are flipped and persisted in the same order.
func (m *Manager) Toggle() (Theme, error) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	m.current = m.current.Opposite()
	next := m.current
	for _, ch := range m.subs {
		select {
		case ch <- next:
		default:
			m.logger.Debug("Theme subscriber lagging, dropping update")
		}
	}
	m.mu.Unlock()

	m.logger.Info("Theme toggled", zap.String("theme", string(next)))
	if m.store != nil {
		if err := m.store.Set(PreferenceKey, string(next)); err != nil {
			return next, errors.Wrap(err, "persist theme preference")
		}
	}
	return next, nil
}

// Subscribe returns a channel receiving every new theme and a cancel func
// that unregisters and closes it
func (m *Manager) Subscribe() (<-chan Theme, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Theme, 4)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}
