// Config loading for the wayfind CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

const (
	configFileName = ".wayfind"
	configFileType = "yaml"
	configFileExt  = ".wayfind.yaml"

	// Config keys.
	cfgKeyDefaultRoute  = "router.default_route"
	cfgKeyAllowNotFound = "router.allow_not_found"
	cfgKeyAutoCleanUp   = "router.auto_clean_up"
	cfgKeyRoutes        = "routes"
	cfgKeyHistoryPath   = "history.path"

	// Default history database location.
	defaultHistoryPath = ".wayfind-history/transitions.db"
)

// defaultConfigYAML is the content written by `wayfind init` when no
// configuration file exists yet.
const defaultConfigYAML = `# Wayfind CLI configuration

router:
  default_route: home
  allow_not_found: false
  auto_clean_up: true

# Route table. Names are dot-delimited; paths may declare URL parameters
# with ":name" segments and query parameters with a "?a&b" suffix.
routes:
  - name: home
    path: /home
  - name: users
    path: /users
  - name: users.detail
    path: /users/:id

history:
  path: .wayfind-history/transitions.db
`

// loadConfig reads the configuration file using Viper. When path is empty
// the default $(CWD)/.wayfind.yaml is used. A missing configuration file
// is not an error; defaults apply.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyAllowNotFound, false)
	v.SetDefault(cfgKeyAutoCleanUp, true)
	v.SetDefault(cfgKeyHistoryPath, defaultHistoryPath)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		if path == "" {
			if _, statErr := os.Stat(configFileExt); os.IsNotExist(statErr) {
				return v, nil
			}
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureDefaultConfigFile creates a default .wayfind.yaml if the file does
// not already exist.
func ensureDefaultConfigFile(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
