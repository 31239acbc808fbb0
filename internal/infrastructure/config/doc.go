// Package config loads and validates bridge configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// (ANIMATRONICS_* pattern). The device catalog is part of configuration:
// the set of animatronics is fixed at process start and only their
// connectivity state changes at runtime.
package config
