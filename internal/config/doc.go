// Package config manages persistent user settings stored in
// ~/.platkit/config.yaml using Viper. Environment variables prefixed with
// PLATKIT_ override file values.
package config
