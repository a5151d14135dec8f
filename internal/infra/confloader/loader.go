package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix prefixes every environment variable the loader reads.
const DefaultEnvPrefix = "BOOKLEND_"

// Loader merges a YAML file, environment variables and caller overrides
// into one koanf tree and decodes it onto a struct.
type Loader struct {
	k        *koanf.Koanf
	prefix   string
	path     string
	optional bool
	sections []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.prefix = prefix }
}

// WithFile reads path as the YAML layer. When optional is set a missing
// file is skipped; a file that exists but does not parse is always an error.
func WithFile(path string, optional bool) Option {
	return func(l *Loader) {
		l.path = path
		l.optional = optional
	}
}

// WithSections lists the top-level keys that split environment names.
// With "catalog" listed, BOOKLEND_CATALOG_BASE_URL maps to catalog.base_url;
// BOOKLEND_METRICS_FILE stays metrics_file.
func WithSections(names ...string) Option {
	return func(l *Loader) { l.sections = append(l.sections, names...) }
}

// New returns a Loader with no layers read yet.
func New(opts ...Option) *Loader {
	l := &Loader{k: koanf.New("."), prefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file, then the environment, then overrides (keyed by
// dotted path), each layer replacing keys set by the one before, and
// decodes the result onto target. Fields of target no layer mentions
// keep the values they had.
func (l *Loader) Load(target any, overrides map[string]any) error {
	if l.path != "" {
		err := l.k.Load(file.Provider(l.path), yaml.Parser())
		if err != nil && !(l.optional && errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("read %s: %w", l.path, err)
		}
	}

	if err := l.k.Load(env.Provider(l.prefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := l.k.Load(mapProvider(overrides), nil); err != nil {
			return fmt.Errorf("apply overrides: %w", err)
		}
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// String returns the merged value at a dotted key.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

func (l *Loader) envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, l.prefix))
	for _, s := range l.sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok && rest != "" {
			return s + "." + rest
		}
	}
	return key
}
