package domain

// Config holds the complete Riftwatch configuration.
type Config struct {
	// Server settings for the admin API
	Server ServerConfig `json:"server"`

	// Component configurations
	Riot       RiotConfig       `json:"riot"`
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Background jobs
	Scan        ScanConfig        `json:"scan"`
	Maintenance MaintenanceConfig `json:"maintenance"`

	// Observability
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// ScanConfig holds background streak scan settings.
type ScanConfig struct {
	Enabled bool `json:"enabled"`

	// IntervalMinutes between full scan passes.
	IntervalMinutes int `json:"intervalMinutes"`

	// HistoryCount is how many recent matches to inspect per player.
	HistoryCount int `json:"historyCount"`

	// MinStreak is the shortest streak worth publishing.
	MinStreak int `json:"minStreak"`
}

// MaintenanceConfig holds cache maintenance scheduling.
type MaintenanceConfig struct {
	// IntervalDays between recurring maintenance passes.
	// A pass also runs unconditionally at startup.
	IntervalDays int `json:"intervalDays"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// DefaultConfig returns the single-process default configuration:
// SQLite storage, in-memory LRU cache, channel event bus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Riot: RiotConfig{
			AccountHost:    "americas.api.riotgames.com",
			DefaultRegion:  "na1",
			MaxConcurrent:  20,
			MaxRetries:     3,
			RequestTimeout: 15,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./riftwatch.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Scan: ScanConfig{
			Enabled:         true,
			IntervalMinutes: 40,
			HistoryCount:    20,
			MinStreak:       3,
		},
		Maintenance: MaintenanceConfig{
			IntervalDays: 7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
