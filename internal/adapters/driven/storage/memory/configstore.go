package memory

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory under the same dot-notation keys
// the TOML store uses ("llm.provider", "index.chunk_size"). Type
// conversion follows the TOML store, so values read back the way they
// would after a round trip through config.toml.
type ConfigStore struct {
	mu       sync.RWMutex
	values   map[string]any
	writeErr error
}

// ConfigOption configures a ConfigStore.
type ConfigOption func(*ConfigStore)

// WithValues seeds the store from a nested table shaped like a parsed
// config.toml, e.g. {"llm": {"provider": "openai"}}.
func WithValues(table map[string]any) ConfigOption {
	return func(s *ConfigStore) {
		flatten(table, "", s.values)
	}
}

// WithWriteError makes every Set and Save fail with err, leaving stored
// values untouched.
func WithWriteError(err error) ConfigOption {
	return func(s *ConfigStore) {
		s.writeErr = err
	}
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore(opts ...ConfigOption) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt accepts int and int64, matching what the TOML decoder produces.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice accepts []string and the []any arrays TOML decodes to,
// skipping non-string elements.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[key] = value
	return nil
}

func (s *ConfigStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeErr
}

func (s *ConfigStore) Load() error {
	return nil
}

func (s *ConfigStore) Path() string {
	return ":memory:"
}

// Keys returns the stored keys in one section ("llm", "pipeline.config"),
// sorted. An empty section returns every key.
func (s *ConfigStore) Keys(section string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := ""
	if section != "" {
		prefix = section + "."
	}
	var keys []string
	for _, k := range slices.Sorted(maps.Keys(s.values)) {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func flatten(table map[string]any, prefix string, into map[string]any) {
	for k, v := range table {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(child, key, into)
			continue
		}
		into[key] = v
	}
}
