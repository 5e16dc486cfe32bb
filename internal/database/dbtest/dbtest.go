// Package dbtest provides throwaway migrated databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"foodgram/backend/internal/database"
	"foodgram/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// New returns a migrated in-memory SQLite database private to the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Password is the plain-text password of every user created by CreateUser.
const Password = "s3cret-pass"

// CreateUser inserts a user with the given username and role "user".
func CreateUser(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    username,
		LastName:     "Tester",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateIngredient inserts an ingredient.
func CreateIngredient(t testing.TB, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return ingredient
}

// CreateTag inserts a tag whose color is derived from the slug.
func CreateTag(t testing.TB, db *gorm.DB, name, slug string) models.Tag {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)

	tag := models.Tag{Name: name, Slug: slug, Color: fmt.Sprintf("#%06X", count+1)}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

// CreateRecipe inserts a recipe by author with the given ingredient amounts
// (keyed by ingredient id) and tags, bypassing validation.
func CreateRecipe(t testing.TB, db *gorm.DB, author models.User, name string, amounts map[uint]int, tags ...models.Tag) models.Recipe {
	t.Helper()

	recipe := models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        name + " text",
		CookingTime: 10,
		Tags:        tags,
	}
	for ingredientID, amount := range amounts {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: ingredientID,
			Amount:       amount,
		})
	}
	require.NoError(t, db.Create(&recipe).Error)
	return recipe
}
