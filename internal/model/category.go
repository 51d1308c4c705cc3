package model

// Category groups products. Deleting a category only flips IsActive.
type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;index" json:"name" validate:"required,max=100"`
	Description string `gorm:"type:varchar(500)" json:"description" validate:"max=500"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
}

// CategoryWithCount is the list projection used by the catalogue screens
type CategoryWithCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}
