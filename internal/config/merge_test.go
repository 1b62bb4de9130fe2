package config

import (
	"reflect"
	"testing"
)

// sampleValues holds two distinct raw values per leaf kind, one per source.
var sampleValues = map[reflect.Kind][2]string{
	reflect.String: {"from-primary", "from-secondary"},
	reflect.Int:    {"1111", "2222"},
	reflect.Bool:   {"false", "true"},
}

func setLeaf(t *testing.T, s *Shape, name, raw string) {
	t.Helper()
	for _, l := range leaves(reflect.ValueOf(s).Elem(), "") {
		if l.name == name {
			if err := (&leafValue{field: l.field}).Set(raw); err != nil {
				t.Fatalf("set %s=%q: %v", name, raw, err)
			}
			return
		}
	}
	t.Fatalf("unknown leaf %s", name)
}

func leafString(t *testing.T, s Shape, name string) (string, bool) {
	t.Helper()
	for _, l := range leaves(reflect.ValueOf(s), "") {
		if l.name == name {
			if l.field.IsNil() {
				return "", false
			}
			return (&leafValue{field: l.field}).String(), true
		}
	}
	t.Fatalf("unknown leaf %s", name)
	return "", false
}

func allLeaves() []leaf {
	return leaves(reflect.ValueOf(Shape{}), "")
}

func fullShape(t *testing.T, pick int) Shape {
	t.Helper()
	var s Shape
	for _, l := range allLeaves() {
		setLeaf(t, &s, l.name, sampleValues[l.field.Type().Elem().Kind()][pick])
	}
	return s
}

func TestMergePrimaryWinsPerLeaf(t *testing.T) {
	for _, l := range allLeaves() {
		t.Run(l.name, func(t *testing.T) {
			values := sampleValues[l.field.Type().Elem().Kind()]
			var primary Shape
			setLeaf(t, &primary, l.name, values[0])
			secondary := fullShape(t, 1)

			merged := Merge(primary, secondary)

			got, ok := leafString(t, merged, l.name)
			if !ok || got != values[0] {
				t.Fatalf("expected primary value %q, got %q (present=%v)", values[0], got, ok)
			}
			for _, other := range allLeaves() {
				if other.name == l.name {
					continue
				}
				want := sampleValues[other.field.Type().Elem().Kind()][1]
				if got, _ := leafString(t, merged, other.name); got != want {
					t.Fatalf("expected %s to fall back to %q, got %q", other.name, want, got)
				}
			}
		})
	}
}

func TestMergeBothAbsentStaysAbsent(t *testing.T) {
	merged := Merge(Shape{Port: ptr(1)}, Shape{Scheme: ptr("SM2")})

	if *merged.Port != 1 || *merged.Scheme != "SM2" {
		t.Fatalf("unexpected merge result: port=%v scheme=%v", merged.Port, merged.Scheme)
	}
	if merged.Mode != nil || merged.Log.LogDir != nil {
		t.Fatalf("expected leaves absent on both sides to stay absent")
	}
	if got := len(merged.Missing()); got != len(allLeaves())-2 {
		t.Fatalf("expected %d missing leaves, got %d", len(allLeaves())-2, got)
	}
}

func TestMergeZeroValuesArePresent(t *testing.T) {
	primary := Shape{
		Port:   ptr(0),
		Scheme: ptr(""),
		Log:    LogShape{EnableConsoleLogger: ptr(false)},
		TLS:    TLSShape{EnableTLS: ptr(false)},
	}

	merged := Merge(primary, Defaults())

	if *merged.Port != 0 {
		t.Fatalf("expected zero port to win, got %d", *merged.Port)
	}
	if *merged.Scheme != "" {
		t.Fatalf("expected empty scheme to win, got %q", *merged.Scheme)
	}
	if *merged.Log.EnableConsoleLogger || *merged.TLS.EnableTLS {
		t.Fatalf("expected false flags to win over true defaults")
	}
}

func TestMergeIdentities(t *testing.T) {
	partial := Shape{
		Port:    ptr(7777),
		Log:     LogShape{LogLevel: ptr("debug")},
		Storage: StorageShape{Password: ptr("")},
	}
	inputs := map[string]Shape{
		"empty":    {},
		"partial":  partial,
		"full":     fullShape(t, 0),
		"defaults": Defaults(),
	}

	for name, x := range inputs {
		t.Run(name, func(t *testing.T) {
			if got := Merge(x, Shape{}); !reflect.DeepEqual(got, x) {
				t.Fatalf("merge with empty secondary changed the input: %+v", got)
			}
			if got := Merge(Shape{}, x); !reflect.DeepEqual(got, x) {
				t.Fatalf("merge with empty primary did not return secondary: %+v", got)
			}
		})
	}
}

func TestMergeDoesNotModifyArguments(t *testing.T) {
	primary := Shape{Port: ptr(1)}
	secondary := Defaults()

	_ = Merge(primary, secondary)

	if primary.Scheme != nil {
		t.Fatalf("primary gained a leaf")
	}
	if *primary.Port != 1 || *secondary.Port != defaultPort {
		t.Fatalf("inputs were modified")
	}
	if !reflect.DeepEqual(secondary, Defaults()) {
		t.Fatalf("secondary was modified")
	}
}

func TestMergeSequentialEqualsThreeWayPriority(t *testing.T) {
	for _, l := range allLeaves() {
		values := sampleValues[l.field.Type().Elem().Kind()]
		defaults := Defaults()
		wantDefault, _ := leafString(t, defaults, l.name)

		cases := []struct {
			name       string
			cli, file  *string
			wantSource string
		}{
			{name: "cli and file", cli: &values[0], file: &values[1], wantSource: values[0]},
			{name: "cli only", cli: &values[0], wantSource: values[0]},
			{name: "file only", file: &values[1], wantSource: values[1]},
			{name: "neither", wantSource: wantDefault},
		}
		for _, tc := range cases {
			t.Run(l.name+"/"+tc.name, func(t *testing.T) {
				var cli, file Shape
				if tc.cli != nil {
					setLeaf(t, &cli, l.name, *tc.cli)
				}
				if tc.file != nil {
					setLeaf(t, &file, l.name, *tc.file)
				}

				got, ok := leafString(t, Resolve(cli, file), l.name)
				if !ok {
					t.Fatalf("expected %s to be present", l.name)
				}
				if got != tc.wantSource {
					t.Fatalf("expected %q, got %q", tc.wantSource, got)
				}
			})
		}
	}
}
