package driven

// ConfigStore provides access to application configuration stored under
// dotted keys such as "embedding.provider" or "chunker.size".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString returns the value as a string, or "" when absent or not a string.
	GetString(key string) string

	// GetInt returns the value as an int, or 0 when absent or not numeric.
	GetInt(key string) int

	// GetFloat returns the value as a float64, or 0 when absent or not numeric.
	GetFloat(key string) float64

	// GetBool returns the value as a bool, or false when absent.
	GetBool(key string) bool

	// Set stores a value and persists the file.
	Set(key string, value any) error

	// Delete removes a key and persists the file.
	Delete(key string) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
