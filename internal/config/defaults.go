package config

// DefaultConfigPath is used when --config_path is not given.
const DefaultConfigPath = "/host/config.yaml"

const (
	defaultPort     = 8888
	defaultLogDir   = "log"
	defaultLogLevel = "info"
	defaultScheme   = "RSA"
	defaultMode     = "production"
	defaultBackend  = "inmemory"

	defaultServerCertPath       = "/host/resources/cert/server.crt"
	defaultServerPrivateKeyPath = "/host/resources/cert/server.key"
	defaultClientCACertPath     = "/host/resources/client_ca/"
	defaultCMPrivateKeyPath     = "/host/resources/cert/cm.key"
	defaultCMCertPath           = "/host/resources/cert/cm.crt"
)

// Defaults returns the compiled-in configuration. Every leaf is present;
// db_url and password are present but empty, meaning "not configured".
func Defaults() Shape {
	return Shape{
		Port:              ptr(defaultPort),
		Scheme:            ptr(defaultScheme),
		EnableInjectCMKey: ptr(false),
		CMPrivateKeyPath:  ptr(defaultCMPrivateKeyPath),
		CMCertPath:        ptr(defaultCMCertPath),
		Mode:              ptr(defaultMode),
		Log: LogShape{
			LogDir:              ptr(defaultLogDir),
			LogLevel:            ptr(defaultLogLevel),
			EnableConsoleLogger: ptr(true),
		},
		TLS: TLSShape{
			EnableTLS:            ptr(true),
			ServerCertPath:       ptr(defaultServerCertPath),
			ServerPrivateKeyPath: ptr(defaultServerPrivateKeyPath),
			ClientCACertPath:     ptr(defaultClientCACertPath),
		},
		Storage: StorageShape{
			StorageBackend: ptr(defaultBackend),
			DBURL:          ptr(""),
			Password:       ptr(""),
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
