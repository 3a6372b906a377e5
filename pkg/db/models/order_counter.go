package models

// OrderCounter is the single-row sequence backing order numbers. Incrementing
// it inside the order creation transaction keeps numbers unique under
// concurrent checkouts, unlike deriving them from a document count.
type OrderCounter struct {
	ID    int   `gorm:"column:id;primaryKey"`
	Value int64 `gorm:"column:value;not null;default:0"`
}
