package service

import (
	"context"
	"fmt"
	"strings"

	"foodgram/backend/internal/models"
	"foodgram/backend/internal/store"

	"gorm.io/gorm"
)

// ShoppingListHeader is the first line of every shopping list report.
const ShoppingListHeader = "Список покупок:"

// ShoppingListItem is one merged (ingredient, unit) line of a shopping list.
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}

func (i ShoppingListItem) String() string {
	return fmt.Sprintf("%s - %d (%s)", i.Name, i.Amount, i.MeasurementUnit)
}

type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Items sums ingredient amounts across every recipe in the user's cart,
// grouped by ingredient name and unit and ordered by name.
func (s *ShoppingListService) Items(ctx context.Context, userID uint) ([]ShoppingListItem, error) {
	q := s.db.Model(&models.RecipeIngredient{}).
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID)

	return store.SumGroupedBy[ShoppingListItem](ctx, q,
		"recipe_ingredients.amount", "amount",
		"ingredients.name", "ingredients.measurement_unit")
}

// Generate renders the user's shopping list as plain text: the header line
// followed by one "{name} - {amount} ({unit})" line per ingredient. An empty
// cart yields just the header.
func (s *ShoppingListService) Generate(ctx context.Context, userID uint) (string, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return "", err
	}
	return RenderShoppingList(items), nil
}

// RenderShoppingList formats items into the text report.
func RenderShoppingList(items []ShoppingListItem) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, ShoppingListHeader)
	for _, item := range items {
		lines = append(lines, item.String())
	}
	return strings.Join(lines, "\n")
}
