// Package config loads the dscleaner configuration.
//
// Values come from DSC_* environment variables (kelseyhightower/envconfig)
// and an optional YAML file found at config.yaml or configs/config.yaml.
// A variable that is set in the environment always wins over the file.
//
//	DSC_SERVER_PORT=5000
//	DSC_SESSION_TTL=30m
//	DSC_REPORT_MODE=minimal
//	DSC_SPLIT_SEED=7
//
// Default returns the same values the struct tags declare and is what the
// batch CLI and tests start from.
package config
