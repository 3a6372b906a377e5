package types

// ToppingSelection is the add-time snapshot of one extra topping. The price is
// frozen when the item enters the cart so later catalog edits cannot change an
// existing line.
type ToppingSelection struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// ToppingSelections is stored as a jsonb column on cart and order items.
type ToppingSelections []ToppingSelection

// TotalPrice sums the per-unit surcharge of every selected topping.
func (t ToppingSelections) TotalPrice() int {
	total := 0
	for _, sel := range t {
		total += sel.Price
	}
	return total
}

// Equal reports whether both selections carry the same toppings in order.
func (t ToppingSelections) Equal(other ToppingSelections) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}
