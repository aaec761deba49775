package log

// Config contains logging settings.
type Config struct {
	Level  string     `mapstructure:"level" yaml:"level"`   // trace/debug/info/warn/error
	Format string     `mapstructure:"format" yaml:"format"` // json/text
	File   FileConfig `mapstructure:"file" yaml:"file"`
}

// FileConfig configures the optional rotating file appender.
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

func defaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}
