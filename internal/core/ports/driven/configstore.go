package driven

// ConfigStore reads and writes reinfect settings addressed by dot-notation
// keys grouped by section: "embedding.*", "llm.*", "artifacts.dir",
// "data.dir", "retrieval.top_k", "index.*", "pubmed.*", "server.*" and
// "pipeline.*". Typed getters return the zero value for a missing key or a
// value of the wrong type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string

	// GetInt accepts int and int64, as decoded from TOML.
	GetInt(key string) int
	GetBool(key string) bool

	// GetStringSlice also accepts []any, keeping only string elements.
	GetStringSlice(key string) []string

	// Set stores a value. File-backed stores persist it before returning
	// and keep the previous value if the write fails.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path returns the backing file, or a marker for non-file stores.
	Path() string
}
