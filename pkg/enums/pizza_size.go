package enums

import "fmt"

// PizzaSize enumerates the sizes a pizza can be sold in.
type PizzaSize string

const (
	PizzaSizeSmall      PizzaSize = "small"
	PizzaSizeMedium     PizzaSize = "medium"
	PizzaSizeLarge      PizzaSize = "large"
	PizzaSizeExtraLarge PizzaSize = "extra_large"
)

var validPizzaSizes = []PizzaSize{
	PizzaSizeSmall,
	PizzaSizeMedium,
	PizzaSizeLarge,
	PizzaSizeExtraLarge,
}

// String implements fmt.Stringer.
func (p PizzaSize) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PizzaSize.
func (p PizzaSize) IsValid() bool {
	for _, candidate := range validPizzaSizes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePizzaSize converts raw input into a PizzaSize.
func ParsePizzaSize(value string) (PizzaSize, error) {
	for _, candidate := range validPizzaSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pizza size %q", value)
}
