package models

import (
	"time"

	"github.com/google/uuid"
)

// Pizza is a catalog entry. Cart and order rows snapshot its fields at
// add-time, so catalog edits never rewrite history.
type Pizza struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string      `gorm:"column:name;not null"`
	Description  string      `gorm:"column:description;not null;default:''"`
	ImageURL     string      `gorm:"column:image_url;not null;default:''"`
	Category     string      `gorm:"column:category;not null;default:'classic'"`
	IsVegetarian bool        `gorm:"column:is_vegetarian;not null;default:false"`
	IsAvailable  bool        `gorm:"column:is_available;not null;default:true"`
	Sizes        []PizzaSize `gorm:"foreignKey:PizzaID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// SizeOption returns the size row matching the requested size, if offered.
func (p *Pizza) SizeOption(size string) *PizzaSize {
	for i := range p.Sizes {
		if string(p.Sizes[i].Size) == size {
			return &p.Sizes[i]
		}
	}
	return nil
}
