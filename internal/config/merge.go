package config

import (
	"fmt"

	"dario.cat/mergo"
)

// Merge combines two shapes leaf by leaf. A leaf present in primary wins;
// otherwise the leaf is taken from secondary, which may leave it absent.
// Neither argument is modified.
func Merge(primary, secondary Shape) Shape {
	out := primary
	// WithoutDereference makes a non-nil leaf count as present even when it
	// points at "", 0 or false, so mergo only fills nil leaves.
	if err := mergo.Merge(&out, secondary, mergo.WithoutDereference); err != nil {
		// Both arguments share one concrete type, which is the only failure
		// mode mergo has for struct values.
		panic(fmt.Sprintf("merge configuration: %v", err))
	}
	return out
}
