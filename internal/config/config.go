// Package config loads tool configuration from egglog.yaml and the
// environment. It is decoupled from CLI concerns so other front-ends can
// reuse it.
package config

// ConfigFileName is the name of the config file.
const ConfigFileName = "egglog.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "egglog.yml"

// Defaults applied after unmarshalling.
const (
	DefaultEngineBin   = "egglog"
	DefaultJournalPath = "egglog-journal.db"
	DefaultRunLimit    = 1000
)

// Config holds tool configuration. Precedence (highest to lowest):
// environment variables > config file > defaults.
type Config struct {
	// EngineBin is the path to the external engine binary.
	EngineBin string `koanf:"engine_bin"`

	// EngineArgs are extra arguments passed to the engine.
	EngineArgs []string `koanf:"engine_args"`

	// JournalPath is the SQLite session journal. Empty disables journaling.
	JournalPath string `koanf:"journal_path"`

	// RunLimit bounds schedule rounds when a program does not state one.
	RunLimit int `koanf:"run_limit"`

	// Verbose lowers the log level to debug.
	Verbose bool `koanf:"verbose"`
}

// ApplyDefaults fills unset fields. JournalPath is left alone: an empty
// path disables journaling, so Load fills the default only when neither
// the file nor the environment mentions the key.
func (c *Config) ApplyDefaults() {
	if c.EngineBin == "" {
		c.EngineBin = DefaultEngineBin
	}
	if c.RunLimit <= 0 {
		c.RunLimit = DefaultRunLimit
	}
}
