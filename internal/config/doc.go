// Package config loads deqpkit.toml.
package config
