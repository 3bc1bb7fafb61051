package locale

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var localeFiles embed.FS

// DefaultLocale is used when a requested locale has no table.
const DefaultLocale = "en"

// table holds one locale's long date/time formatting data.
type table struct {
	Months []string `yaml:"months"`
	// Layout is the long-format pattern with {day}, {month}, {year} and
	// {time} placeholders.
	Layout string `yaml:"layout"`
	// TimeLayout is a Go reference layout for the time portion.
	TimeLayout string `yaml:"time_layout"`
}

// Registry formats absolute instants as locale-aware long date/time
// strings. It backs the Unwrapper's fallback timestamp formatter for
// platforms without a native timestamp marker token.
type Registry struct {
	mu      sync.RWMutex
	locales map[string]*table
}

// NewRegistry loads the embedded locale tables.
func NewRegistry() (*Registry, error) {
	r := &Registry{locales: make(map[string]*table)}
	entries, err := localeFiles.ReadDir("config")
	if err != nil {
		return nil, fmt.Errorf("read locale config: %w", err)
	}
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if err := r.loadLocaleFile(name); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", name, err)
		}
	}
	if _, ok := r.locales[DefaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q missing from embedded tables", DefaultLocale)
	}
	return r, nil
}

func (r *Registry) loadLocaleFile(name string) error {
	data, err := localeFiles.ReadFile(fmt.Sprintf("config/%s.yaml", name))
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if len(t.Months) != 12 {
		return fmt.Errorf("expected 12 months, got %d", len(t.Months))
	}
	if t.Layout == "" || t.TimeLayout == "" {
		return fmt.Errorf("layout and time_layout are required")
	}
	r.locales[name] = &t
	return nil
}

// Locales lists the loaded locale names.
func (r *Registry) Locales() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.locales))
	for name := range r.locales {
		names = append(names, name)
	}
	return names
}

// FormatLong renders t as a long date/time string for the given locale.
// Region subtags are ignored ("de-AT" uses "de"); unknown locales fall
// back to DefaultLocale.
func (r *Registry) FormatLong(t time.Time, locale string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	tab, ok := r.locales[lang]
	if !ok {
		tab = r.locales[DefaultLocale]
	}

	replacer := strings.NewReplacer(
		"{day}", strconv.Itoa(t.Day()),
		"{month}", tab.Months[int(t.Month())-1],
		"{year}", strconv.Itoa(t.Year()),
		"{time}", t.Format(tab.TimeLayout),
	)
	return replacer.Replace(tab.Layout)
}

// Formatter binds a locale, yielding the TimestampFormatter shape the
// Unwrapper consumes.
func (r *Registry) Formatter(locale string) func(time.Time) string {
	return func(t time.Time) string {
		return r.FormatLong(t, locale)
	}
}
