//go:build property

package size

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestByteSizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("byte size never shrinks under concatenation", prop.ForAll(
		func(a, b string) bool {
			return ByteSize(a+b) >= ByteSize(a) && ByteSize(a+b) >= ByteSize(b)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("byte size is additive", prop.ForAll(
		func(a, b string) bool {
			return ByteSize(a+b) == ByteSize(a)+ByteSize(b)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("byte size is at least the rune count", prop.ForAll(
		func(s string) bool {
			return ByteSize(s) >= len([]rune(s))
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
