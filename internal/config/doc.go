// Package config loads the recorder's YAML configuration file.
package config
