package config

import (
	"fmt"
	"strings"
)

const redactedValue = "******"

// Config is the resolved runtime configuration. It holds plain values only,
// so copies handed to consumers never share state.
type Config struct {
	Port              int
	Scheme            string
	EnableInjectCMKey bool
	CMPrivateKeyPath  string
	CMCertPath        string
	Mode              string

	Log     LogConfig
	TLS     TLSConfig
	Storage StorageConfig

	// ConfigPath is the file that was consulted, whether or not it existed.
	ConfigPath string
}

// LogConfig configures the process logger.
type LogConfig struct {
	LogDir              string
	LogLevel            string
	EnableConsoleLogger bool
}

// TLSConfig configures transport security of the listener.
type TLSConfig struct {
	EnableTLS            bool
	ServerCertPath       string
	ServerPrivateKeyPath string
	ClientCACertPath     string
}

// StorageConfig selects and addresses the storage backend.
type StorageConfig struct {
	StorageBackend string
	DBURL          string
	Password       string
}

// Load resolves configuration from args (without the program name), the
// YAML file they point at, and Defaults, in that order of precedence.
// Any returned error is fatal for process start-up.
func Load(args []string) (Config, error) {
	cl, err := ParseArgs(args)
	if err != nil {
		return Config{}, err
	}

	file, err := LoadFile(cl.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg, err := Finalize(Resolve(cl.Config, file))
	if err != nil {
		return Config{}, err
	}
	cfg.ConfigPath = cl.ConfigPath
	return cfg, nil
}

// Resolve merges the command-line and file shapes and fills whatever is
// still absent from Defaults.
func Resolve(commandLine, file Shape) Shape {
	return Merge(Merge(commandLine, file), Defaults())
}

// Finalize converts a shape with every leaf present into a Config.
func Finalize(s Shape) (Config, error) {
	if missing := s.Missing(); len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: missing %s", ErrIncompleteConfig, strings.Join(missing, ", "))
	}

	return Config{
		Port:              *s.Port,
		Scheme:            *s.Scheme,
		EnableInjectCMKey: *s.EnableInjectCMKey,
		CMPrivateKeyPath:  *s.CMPrivateKeyPath,
		CMCertPath:        *s.CMCertPath,
		Mode:              *s.Mode,
		Log: LogConfig{
			LogDir:              *s.Log.LogDir,
			LogLevel:            *s.Log.LogLevel,
			EnableConsoleLogger: *s.Log.EnableConsoleLogger,
		},
		TLS: TLSConfig{
			EnableTLS:            *s.TLS.EnableTLS,
			ServerCertPath:       *s.TLS.ServerCertPath,
			ServerPrivateKeyPath: *s.TLS.ServerPrivateKeyPath,
			ClientCACertPath:     *s.TLS.ClientCACertPath,
		},
		Storage: StorageConfig{
			StorageBackend: *s.Storage.StorageBackend,
			DBURL:          *s.Storage.DBURL,
			Password:       *s.Storage.Password,
		},
	}, nil
}

// Redacted returns a copy safe to log or expose: the storage password is
// masked when set.
func (c Config) Redacted() Config {
	if c.Storage.Password != "" {
		c.Storage.Password = redactedValue
	}
	return c
}
