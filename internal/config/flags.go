package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagVersion  = flag.String("version", "", "Mesh version written by upgrade (latest, 1.10, 1.8, 1.7, 1.4, 1.0)")
	flagEndian   = flag.String("endian", "", "Byte order written by upgrade (native, big, little)")
	flagValidate = flag.Bool("validate", false, "Check nested chunk sizes while reading and writing")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagVersion != "" {
		cfg.Export.Version = *flagVersion
	}
	if *flagEndian != "" {
		cfg.Export.Endian = *flagEndian
	}
	if *flagValidate {
		cfg.Import.ValidateChunkSizes = true
	}
}
