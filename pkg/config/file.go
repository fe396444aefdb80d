package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
)

const DefaultConfigPath = "~/.llamaconv.toml"

const configHeader = `# llamaconv configuration
#
# [Placeholder] Delay is how long the dummy converter waits before writing ggml-model-1.bin.
# [Conversion] ConverterScript is run as "<Python> -u <script> <model dir>"; when empty the
# llamaconv binary itself is run with the dummy command.

`

// ExpandPath resolves a leading ~ to the current user's home directory.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// FromFile loads config from a specified file. If file does not exist defaults are assumed.
func FromFile(path string) (*Conf, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(expanded)
	switch {
	case os.IsNotExist(err):
		return DefaultConf(), nil
	case err != nil:
		return nil, err
	}

	defer file.Close()
	return FromReader(file, DefaultConf())
}

// FromReader decodes TOML on top of def, keys absent from the reader keep their default.
func FromReader(reader io.Reader, def *Conf) (*Conf, error) {
	cfg := *def
	if _, err := toml.NewDecoder(reader).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.PopulateUnsetConfigVars()
	return &cfg, nil
}

// EnsureExists writes the default config to path unless a file is already there.
func EnsureExists(path string) (created bool, err error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expanded)
	if err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	c, err := os.Create(expanded)
	if err != nil {
		return false, err
	}

	if err := WriteConf(c, DefaultConf()); err != nil {
		_ = c.Close()
		return false, err
	}

	if err := c.Close(); err != nil {
		return false, fmt.Errorf("close config: %w", err)
	}
	return true, nil
}

func WriteConf(w io.Writer, cfg *Conf) error {
	if _, err := io.WriteString(w, configHeader); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
