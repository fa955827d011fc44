package driven

// ConfigStore reads and writes settings by dotted key, such as
// "retrieval.ask_threshold" or "llm.provider". Nested TOML tables map to
// the dotted form.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// The typed getters return the zero value for missing keys and for
	// values of another type.
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetFloat also accepts integers, so "ask_threshold = 1" reads as 1.0.
	GetFloat(key string) float64
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path is the backing file, or a placeholder for in-memory stores.
	Path() string
}
