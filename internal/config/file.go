package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ReadConfigFile loads an optional config file into v. When path is empty
// it looks for <name>.{yaml,json,toml} in the working directory, /etc/<name>
// and next to the binary. A missing file is not an error.
func ReadConfigFile(name, path string, v *viper.Viper) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(name)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/" + name)
		if bin, err := os.Executable(); err != nil {
			slog.Warn("cannot resolve executable path, skipping its directory for config lookup", "error", err)
		} else {
			v.AddConfigPath(filepath.Dir(bin))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("no config file, using defaults and environment")
			return nil
		}
		return fmt.Errorf("invalid config file: %w", err)
	}
	slog.Info("using config file", "file", v.ConfigFileUsed())
	return nil
}
