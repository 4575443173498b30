// Package config manages user-level settings stored at ~/.agentpack/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the default cloud project, region, and model used by deploy commands.
package config
