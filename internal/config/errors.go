package config

import "errors"

var (
	// ErrInvalidArguments indicates malformed command-line syntax, such as an
	// unknown flag or a non-numeric port.
	ErrInvalidArguments = errors.New("invalid command-line arguments")
	// ErrConfigFileUnreadable indicates the configuration file exists but
	// could not be opened or read.
	ErrConfigFileUnreadable = errors.New("configuration file is unreadable")
	// ErrConfigFileMalformed indicates the configuration file was read but its
	// content is not a valid configuration.
	ErrConfigFileMalformed = errors.New("configuration file is malformed")
	// ErrIncompleteConfig indicates a setting was absent from every source.
	ErrIncompleteConfig = errors.New("configuration is incomplete")
)
