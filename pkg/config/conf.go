package config

import (
	"time"
)

const (
	DefaultPlaceholderDelay       = 5 * time.Second
	DefaultPython                 = "python3"
	DefaultInstallRetries         = 3
	DefaultInstallBackoff         = time.Second
	DefaultDependencyCheckWorkers = 4
	DefaultPort                   = "8080"
	DefaultCacheSize              = 128
	DefaultLogLevel               = "info"
)

// DefaultDependencies are the python packages the PyTorch to ggml converter imports.
var DefaultDependencies = []string{"numpy", "sentencepiece", "torch"}

// Duration is a time.Duration that reads and writes as a string ("5s") in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type Conf struct {
	Placeholder PlaceholderConf
	Conversion  ConversionConf
	Server      ServerConf
	Log         LogConf
}

type PlaceholderConf struct {
	Delay Duration
}

type ConversionConf struct {
	Python                 string
	Dependencies           []string
	InstallRetries         int
	InstallBackoff         Duration
	CommandTimeout         Duration
	ConverterScript        string
	DependencyCheckWorkers int
}

type ServerConf struct {
	Port      string
	CacheSize int
}

type LogConf struct {
	Level string
}

func DefaultConf() *Conf {
	return &Conf{
		Placeholder: PlaceholderConf{
			Delay: Duration(DefaultPlaceholderDelay),
		},
		Conversion: ConversionConf{
			Python:                 DefaultPython,
			Dependencies:           append([]string(nil), DefaultDependencies...),
			InstallRetries:         DefaultInstallRetries,
			InstallBackoff:         Duration(DefaultInstallBackoff),
			DependencyCheckWorkers: DefaultDependencyCheckWorkers,
		},
		Server: ServerConf{
			Port:      DefaultPort,
			CacheSize: DefaultCacheSize,
		},
		Log: LogConf{
			Level: DefaultLogLevel,
		},
	}
}

// PopulateUnsetConfigVars replaces zero values left by a partial config file with defaults.
// A zero placeholder delay is kept since it is a valid setting.
func (c *Conf) PopulateUnsetConfigVars() {
	if c.Conversion.Python == "" {
		c.Conversion.Python = DefaultPython
	}
	if len(c.Conversion.Dependencies) == 0 {
		c.Conversion.Dependencies = append([]string(nil), DefaultDependencies...)
	}
	if c.Conversion.InstallRetries < 0 {
		c.Conversion.InstallRetries = 0
	}
	if c.Conversion.InstallBackoff <= 0 {
		c.Conversion.InstallBackoff = Duration(DefaultInstallBackoff)
	}
	if c.Conversion.CommandTimeout < 0 {
		c.Conversion.CommandTimeout = 0
	}
	if c.Conversion.DependencyCheckWorkers < 1 {
		c.Conversion.DependencyCheckWorkers = DefaultDependencyCheckWorkers
	}
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.CacheSize < 1 {
		c.Server.CacheSize = DefaultCacheSize
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
