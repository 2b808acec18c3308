package settings

import "sync"

type Arguments struct {
	// The file path to the snapshot datafiles
	DataDir string
	LogDir  string

	ConfigFile string

	// The mode of operation
	// standalone, embedded
	Mode string

	// Maximum size of journal files in bytes before rotation
	MaxJournalFileSize int64

	// Strongly verbose logging
	Verbose bool

	// Optional passphrase; when set, snapshot files are sealed at rest
	SnapshotKey string

	Debug bool // Enable debug mode

	PrintToScreen bool // Print log messages to screen

	Version string
}

var (
	instance *Arguments
	once     sync.Once
)

// GetSettings returns the global settings instance. Flag parsing in main
// binds directly into the struct this returns.
func GetSettings() *Arguments {
	once.Do(func() {
		instance = &Arguments{
			DataDir:            "./datafiles",
			LogDir:             "./log_files",
			MaxJournalFileSize: 1000000,
			Mode:               "standalone",
		}
	})
	return instance
}
