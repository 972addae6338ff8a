package conf

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultMinDistance       = 10.0
	DefaultConversionBaseURL = "https://api.cadconvert.example.com/v1"
	DefaultConversionTimeout = 60 * time.Second
	DefaultPollInterval      = 500 * time.Millisecond
	DefaultCacheTTL          = time.Hour
	DefaultPort              = "8080"
	DefaultBodyLimit         = "32M"
)

// setDefaultConfig sets viper's defaults for every configuration key.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("workdir", os.TempDir())

	viper.SetDefault("setback.mindistance", DefaultMinDistance)

	viper.SetDefault("conversion.baseurl", DefaultConversionBaseURL)
	viper.SetDefault("conversion.apikey", "")
	viper.SetDefault("conversion.timeout", DefaultConversionTimeout)
	viper.SetDefault("conversion.pollinterval", DefaultPollInterval)
	viper.SetDefault("conversion.cachettl", DefaultCacheTTL)

	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.port", DefaultPort)
	viper.SetDefault("webserver.bodylimit", DefaultBodyLimit)
}

// DefaultSettings returns a Settings struct populated with defaults. Used
// for writing the initial config file and in tests.
func DefaultSettings() *Settings {
	return &Settings{
		Debug:   false,
		WorkDir: os.TempDir(),
		Setback: SetbackSettings{
			MinDistance: DefaultMinDistance,
		},
		Conversion: ConversionSettings{
			BaseURL:      DefaultConversionBaseURL,
			Timeout:      DefaultConversionTimeout,
			PollInterval: DefaultPollInterval,
			CacheTTL:     DefaultCacheTTL,
		},
		WebServer: WebServerSettings{
			Port:      DefaultPort,
			BodyLimit: DefaultBodyLimit,
		},
	}
}
