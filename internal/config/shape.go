package config

import (
	"reflect"
	"strings"
)

// Shape is one source's view of the configuration. A nil leaf means the
// source did not supply that setting; a non-nil leaf is present even when it
// points at a zero value.
//
// The yaml tag of every field is also the command-line flag name of the leaf
// (groups join with a dot, e.g. log_config.log_level), and the help tag is
// its flag description.
type Shape struct {
	Port              *int    `yaml:"port" help:"Listening port"`
	Scheme            *string `yaml:"scheme" help:"Key scheme: SM2, RSA"`
	EnableInjectCMKey *bool   `yaml:"enable_inject_cm_key" help:"Load the capsule manager key pair from disk instead of generating one"`
	CMPrivateKeyPath  *string `yaml:"cm_private_key_path" help:"Capsule manager private key path"`
	CMCertPath        *string `yaml:"cm_cert_path" help:"Capsule manager certificate path"`
	Mode              *string `yaml:"mode" help:"Operating mode of the capsule manager"`

	Log     LogShape     `yaml:"log_config"`
	TLS     TLSShape     `yaml:"tls_config"`
	Storage StorageShape `yaml:"storage_config"`
}

// LogShape holds the logging group.
type LogShape struct {
	LogDir              *string `yaml:"log_dir" help:"Log directory"`
	LogLevel            *string `yaml:"log_level" help:"Log level"`
	EnableConsoleLogger *bool   `yaml:"enable_console_logger" help:"Also log to the console"`
}

// TLSShape holds the transport-security group.
type TLSShape struct {
	EnableTLS            *bool   `yaml:"enable_tls" help:"Serve over TLS"`
	ServerCertPath       *string `yaml:"server_cert_path" help:"Server certificate path"`
	ServerPrivateKeyPath *string `yaml:"server_private_key_path" help:"Server private key path"`
	ClientCACertPath     *string `yaml:"client_ca_cert_path" help:"Client CA certificate file or directory"`
}

// StorageShape holds the storage group.
type StorageShape struct {
	StorageBackend *string `yaml:"storage_backend" help:"Storage backend: inmemory, mysql, postgres, sqlite"`
	DBURL          *string `yaml:"db_url" help:"Database URL"`
	Password       *string `yaml:"password" help:"Database password"`
}

// leaf is a single optional setting inside a Shape.
type leaf struct {
	name  string
	help  string
	field reflect.Value
}

// leaves walks s and returns its optional settings in declaration order.
// When s is addressable the returned fields are settable.
func leaves(s reflect.Value, prefix string) []leaf {
	var out []leaf
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := strings.Split(sf.Tag.Get("yaml"), ",")[0]
		if prefix != "" {
			name = prefix + "." + name
		}

		fv := s.Field(i)
		switch fv.Kind() {
		case reflect.Struct:
			out = append(out, leaves(fv, name)...)
		case reflect.Ptr:
			out = append(out, leaf{name: name, help: sf.Tag.Get("help"), field: fv})
		}
	}
	return out
}

// Missing returns the names of the leaves s does not supply, in declaration
// order. A Shape merged with Defaults always returns none.
func (s Shape) Missing() []string {
	var missing []string
	for _, l := range leaves(reflect.ValueOf(s), "") {
		if l.field.IsNil() {
			missing = append(missing, l.name)
		}
	}
	return missing
}
