//go:build property

package options

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genLeaf() gopter.Gen {
	return gen.OneGenOf(
		gen.AlphaString().Map(func(s string) any { return s }),
		gen.Int64().Map(func(i int64) any { return i }),
		gen.Float64Range(-1e6, 1e6).Map(func(f float64) any { return f }),
		gen.Bool().Map(func(b bool) any { return b }),
	)
}

func genValue() gopter.Gen {
	return gen.MapOf(gen.Identifier(), genLeaf()).Map(func(m map[string]any) Value {
		v := Value{}
		for k, val := range m {
			v[k] = val
		}
		// one nested object and one array so structure is exercised too
		v["nested"] = map[string]any{"inner": fmt.Sprint(len(m))}
		v["list"] = []any{int64(len(m)), true}
		return v
	})
}

func TestOptionsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("pretty then parse yields an equal value", prop.ForAll(
		func(v Value) bool {
			doc := Default()
			if !doc.SetText(Pretty(v)).OK {
				return false
			}
			first, err := doc.Snapshot()
			if err != nil {
				return false
			}
			second, err := Parse(doc.Pretty())
			if err != nil {
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		genValue(),
	))

	properties.Property("failed parse never changes the parsed value", prop.ForAll(
		func(v Value, junk string) bool {
			doc := Default()
			if !doc.SetText(Pretty(v)).OK {
				return false
			}
			before, _ := doc.Snapshot()
			if doc.SetText("{" + junk).OK {
				return true
			}
			after, _ := doc.Snapshot()
			return doc.Err() != nil && reflect.DeepEqual(before, after)
		},
		genValue(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
