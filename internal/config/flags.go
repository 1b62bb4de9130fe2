package config

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
)

// CommandLine is the result of parsing process arguments.
type CommandLine struct {
	// ConfigPath is the YAML file to load; DefaultConfigPath when not given.
	ConfigPath string
	// Config holds only the settings passed explicitly as flags.
	Config Shape
}

// ParseArgs parses args (without the program name). Every leaf of Shape is
// registered as a flag named after its YAML path, e.g. --port or
// --tls_config.enable_tls=false; bool leaves take an explicit value. Flags
// that are not passed stay absent instead of taking a default.
func ParseArgs(args []string) (CommandLine, error) {
	var cl CommandLine

	app := newApplication(&cl)
	if _, err := app.Parse(args); err != nil {
		return CommandLine{}, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return cl, nil
}

func newApplication(cl *CommandLine) *kingpin.Application {
	app := kingpin.New("capsule-manager", "Capsule Manager - key and policy management service")
	app.Flag("config_path", "Path to YAML configuration file").
		Default(DefaultConfigPath).
		StringVar(&cl.ConfigPath)

	for _, l := range leaves(reflect.ValueOf(&cl.Config).Elem(), "") {
		app.Flag(l.name, l.help).
			PlaceHolder(placeholder(l.field)).
			SetValue(&leafValue{field: l.field})
	}
	return app
}

func placeholder(field reflect.Value) string {
	switch field.Type().Elem().Kind() {
	case reflect.Int:
		return "INT"
	case reflect.Bool:
		return "BOOL"
	default:
		return "STRING"
	}
}

// leafValue adapts a pointer leaf of Shape to kingpin.Value. Set allocates the
// leaf, so only flags that appear on the command line become present.
type leafValue struct {
	field reflect.Value
}

func (v *leafValue) Set(raw string) error {
	elem := reflect.New(v.field.Type().Elem())
	switch elem.Elem().Kind() {
	case reflect.String:
		elem.Elem().SetString(raw)
	case reflect.Int:
		n, err := strconv.ParseInt(raw, 10, 0)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		elem.Elem().SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		elem.Elem().SetBool(b)
	default:
		return fmt.Errorf("unsupported flag type %s", elem.Elem().Type())
	}
	v.field.Set(elem)
	return nil
}

func (v *leafValue) String() string {
	if !v.field.IsValid() || v.field.IsNil() {
		return ""
	}
	return fmt.Sprint(v.field.Elem().Interface())
}
