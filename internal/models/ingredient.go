package models

// Ingredient is reference data loaded in bulk and never edited by users.
type Ingredient struct {
	ID              uint   `gorm:"primarykey"`
	Name            string `gorm:"size:150;not null;uniqueIndex:idx_ingredient_name_unit"`
	MeasurementUnit string `gorm:"size:50;not null;uniqueIndex:idx_ingredient_name_unit"`
}
