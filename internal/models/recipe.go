package models

import "time"

const (
	MinCookingTime = 1
	MaxCookingTime = 90
)

// Recipe is published by its author and owns its ingredient lines and tag set.
type Recipe struct {
	ID          uint      `gorm:"primarykey"`
	AuthorID    uint      `gorm:"not null;index"`
	Name        string    `gorm:"size:200;not null"`
	Image       string    `gorm:"size:512"`
	Text        string    `gorm:"not null"`
	CookingTime int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time

	Author      User               `gorm:"foreignKey:AuthorID"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;"`
}

// RecipeIngredient is one (ingredient, amount) line of a recipe.
type RecipeIngredient struct {
	ID           uint `gorm:"primarykey"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Amount       int  `gorm:"not null"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientID"`
}
