// Package config defines configuration structures for the aviary CLI.
//
// Configuration can be provided via:
//   - Command-line flags and positional arguments
//   - Environment variables (PARALLEL for worker count, AVIARY_ prefix for
//     everything else)
//   - YAML configuration file
//
// Precedence, lowest to highest: defaults, config file, environment, flags.
// Merging is zero-value aware; an unset source never clobbers a set one.
package config
