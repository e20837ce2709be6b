package config

// Defaults for settings that are not given on the command line, in the
// environment or in a config file.
const (
	// AppDirName is the folder created under the platform data directory.
	AppDirName = "MyPDFLibrary"

	// EnvPrefix prefixes every environment variable, e.g. PDFLIB_DATA_DIR.
	EnvPrefix = "PDFLIB"

	DefaultThumbnailWidth = 200
	DefaultRecentLimit    = 10
	DefaultViewMargin     = 25
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)
