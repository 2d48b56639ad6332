// Package labels provides a translated statemachine.Labeler backed by YAML
// catalogs.
//
// Labels are looked up under "<machine>.states.<state>" and
// "<machine>.events.<event>" in the language carried by the context, then in
// the default language, and finally fall back to statemachine.Humanizer.
//
//	cat, err := labels.LoadFS(assets, "labels", labels.WithDefaultLanguage("en"))
//	def := statemachine.MustNew("order", statemachine.WithLabeler[*Order](cat), ...)
//	label := def.HumanStateName(labels.WithLanguage(ctx, "de"), Pending)
package labels

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"sync"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

const DefaultLanguage = "en"

// Catalog is a statemachine.Labeler. It is safe for concurrent use.
type Catalog struct {
	mu          sync.RWMutex
	labels      map[string]map[string]string
	defaultLang string
	fallback    statemachine.Labeler
}

var _ statemachine.Labeler = (*Catalog)(nil)

// Option configures a Catalog.
type Option func(*Catalog)

// WithDefaultLanguage sets the language used when the context carries none or
// the requested language lacks a label.
func WithDefaultLanguage(lang string) Option {
	return func(c *Catalog) {
		if lang != "" {
			c.defaultLang = lang
		}
	}
}

// WithFallback replaces the labeler used for keys missing from the catalog.
func WithFallback(l statemachine.Labeler) Option {
	return func(c *Catalog) {
		if l != nil {
			c.fallback = l
		}
	}
}

// New returns an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		labels:      make(map[string]map[string]string),
		defaultLang: DefaultLanguage,
		fallback:    statemachine.Humanizer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load parses a YAML document and merges it into a new catalog.
func Load(data []byte, opts ...Option) (*Catalog, error) {
	c := New(opts...)
	if err := c.Merge(data); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads a single YAML file.
func LoadFile(filename string, opts ...Option) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	return Load(data, opts...)
}

// LoadFS merges every .yaml and .yml file in dir, in lexical order. Later
// files override earlier ones.
func LoadFS(fsys fs.FS, dir string, opts ...Option) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read labels dir: %w", err)
	}

	c := New(opts...)
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read labels file %s: %w", e.Name(), err)
		}
		if err := c.Merge(data); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
	}
	return c, nil
}

// Merge parses data and adds its labels, overriding existing keys.
func (c *Catalog) Merge(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for lang, kv := range parsed {
		dst, ok := c.labels[lang]
		if !ok {
			dst = make(map[string]string, len(kv))
			c.labels[lang] = dst
		}
		for k, v := range kv {
			dst[k] = v
		}
	}
	return nil
}

// Languages returns the catalog languages in lexical order.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	langs := make([]string, 0, len(c.labels))
	for l := range c.labels {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	return langs
}

// Lookup returns the label stored under key for lang, trying the default
// language second.
func (c *Catalog) Lookup(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if lang != "" {
		if v, ok := c.labels[lang][key]; ok {
			return v, true
		}
	}
	v, ok := c.labels[c.defaultLang][key]
	return v, ok
}

func (c *Catalog) StateLabel(ctx context.Context, machine string, state statemachine.State) string {
	if state == nil {
		return ""
	}
	if v, ok := c.Lookup(LanguageFromContext(ctx), StateKey(machine, state.Name())); ok {
		return v
	}
	return c.fallback.StateLabel(ctx, machine, state)
}

func (c *Catalog) EventLabel(ctx context.Context, machine string, event statemachine.Event) string {
	if event == nil {
		return ""
	}
	if v, ok := c.Lookup(LanguageFromContext(ctx), EventKey(machine, event.Name())); ok {
		return v
	}
	return c.fallback.EventLabel(ctx, machine, event)
}

// StateKey returns the catalog key of a state label.
func StateKey(machine, state string) string {
	return machine + ".states." + state
}

// EventKey returns the catalog key of an event label.
func EventKey(machine, event string) string {
	return machine + ".events." + event
}

// Set stores a single label.
func (c *Catalog) Set(lang, key, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dst, ok := c.labels[lang]
	if !ok {
		dst = make(map[string]string)
		c.labels[lang] = dst
	}
	dst[key] = label
}

// DefaultLanguageName returns the language used when the context carries none.
func (c *Catalog) DefaultLanguageName() string {
	return c.defaultLang
}
