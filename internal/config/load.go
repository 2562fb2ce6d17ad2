package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tauraamui/edgevector/pkg/configdef"
	"github.com/tauraamui/edgevector/pkg/log"
	"github.com/tauraamui/xerror"
)

const (
	vendorName     = "tacusci"
	appName        = "edgevector"
	configFileName = "config.json"
	configEnvVar   = "EDGEVECTOR_CONFIG"
)

var fs afero.Fs = afero.NewOsFs()

// load reads the config file over the default values. Validation is left
// to the caller since flags may still override what the file holds.
func load(explicitPath string) (configdef.Values, error) {
	values := configdef.Defaults()

	configPath, required, err := resolveConfigPath(explicitPath)
	if err != nil {
		return configdef.Values{}, err
	}

	file, err := readConfigFile(configPath)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			log.Debug("No config file found at %s, using defaults", configPath)
			return values, nil
		}
		return configdef.Values{}, xerror.Errorf("unable to read config file %s: %w", configPath, err)
	}

	log.Info("Resolved config file location: %s", configPath)
	if err := unmarshal(file, &values); err != nil {
		return configdef.Values{}, err
	}

	return values, nil
}

var readConfigFile = func(path string) ([]byte, error) {
	return afero.ReadFile(fs, path)
}

func unmarshal(content []byte, values *configdef.Values) error {
	err := json.Unmarshal(content, values)
	if err != nil {
		return pkgerrors.Errorf("parsing configuration error: %v", err)
	}
	return nil
}

// resolveConfigPath reports whether the resolved file must exist: paths
// given explicitly or through the environment must, the per user default
// location may be absent.
func resolveConfigPath(explicitPath string) (string, bool, error) {
	if len(explicitPath) > 0 {
		return explicitPath, true, nil
	}

	configPath := os.Getenv(configEnvVar)
	if len(configPath) > 0 {
		return configPath, true, nil
	}

	configParentDir, err := userConfigDir()
	if err != nil {
		return "", false, xerror.Errorf("unable to resolve %s location: %w", configFileName, err)
	}

	return filepath.Join(
		configParentDir,
		vendorName,
		appName,
		configFileName), false, nil
}

var userConfigDir = func() (string, error) {
	return os.UserConfigDir()
}
