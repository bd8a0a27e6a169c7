package utils

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: formatted dollar amounts always parse back to the rounded input,
// and separator grouping never changes the digits.
func TestProperty_FormatUSDRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("stripping separators parses back to two decimals", prop.ForAll(
		func(cents int64) bool {
			amount := float64(cents) / 100
			s := FormatUSD(amount)
			s = strings.TrimPrefix(s, "-")
			s = strings.TrimPrefix(s, "$")
			s = strings.ReplaceAll(s, ",", "")
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return false
			}
			if amount < 0 {
				parsed = -parsed
			}
			diff := parsed - amount
			return diff < 0.005 && diff > -0.005
		},
		gen.Int64Range(-1e12, 1e12),
	))

	properties.Property("group sizes between separators are valid", prop.ForAll(
		func(qty int64) bool {
			s := FormatQuantity(qty)
			s = strings.TrimPrefix(s, "-")
			groups := strings.Split(s, ",")
			for i, g := range groups {
				if i == 0 {
					if len(g) < 1 || len(g) > 3 {
						return false
					}
					continue
				}
				if len(g) != 3 {
					return false
				}
			}
			return true
		},
		gen.Int64Range(-1e18, 1e18),
	))

	properties.TestingRun(t)
}
