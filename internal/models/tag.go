package models

// Tag labels recipes (e.g. "Breakfast", "Lunch"). Name, color and slug are
// all unique.
type Tag struct {
	ID    uint   `gorm:"primarykey"`
	Name  string `gorm:"size:60;unique;not null"`
	Color string `gorm:"size:7;unique;not null"`
	Slug  string `gorm:"size:150;unique;not null"`
}
