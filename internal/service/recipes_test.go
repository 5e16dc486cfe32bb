package service

import (
	"context"
	"testing"
	"time"

	"foodgram/backend/internal/database/dbtest"
	"foodgram/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recipeFixture struct {
	db     *gorm.DB
	svc    *RecipeService
	author models.User
	salt   models.Ingredient
	flour  models.Ingredient
	lunch  models.Tag
	dinner models.Tag
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	db := dbtest.New(t)
	return &recipeFixture{
		db:     db,
		svc:    NewRecipeService(db),
		author: dbtest.CreateUser(t, db, "chef"),
		salt:   dbtest.CreateIngredient(t, db, "Salt", "g"),
		flour:  dbtest.CreateIngredient(t, db, "Flour", "g"),
		lunch:  dbtest.CreateTag(t, db, "Lunch", "lunch"),
		dinner: dbtest.CreateTag(t, db, "Dinner", "dinner"),
	}
}

func (f *recipeFixture) input() RecipeInput {
	return RecipeInput{
		Name:        "Bread",
		Text:        "Mix and bake.",
		CookingTime: 45,
		Image:       "recipes/bread.png",
		Ingredients: []IngredientLine{
			{ID: f.flour.ID, Amount: 500},
			{ID: f.salt.ID, Amount: 5},
		},
		Tags: []uint{f.lunch.ID},
	}
}

func (f *recipeFixture) recipeCount(t *testing.T) int64 {
	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	return count
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture(t)

	recipe, err := f.svc.Create(context.Background(), f.author.ID, f.input())
	require.NoError(t, err)

	assert.Equal(t, "Bread", recipe.Name)
	assert.Equal(t, f.author.ID, recipe.Author.ID)
	assert.Equal(t, "recipes/bread.png", recipe.Image)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "Flour", recipe.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 500, recipe.Ingredients[0].Amount)
	assert.Equal(t, "Salt", recipe.Ingredients[1].Ingredient.Name)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "lunch", recipe.Tags[0].Slug)
}

func TestCreateRecipeDuplicateIngredientPersistsNothing(t *testing.T) {
	f := newRecipeFixture(t)
	input := f.input()
	input.Ingredients = append(input.Ingredients, IngredientLine{ID: f.salt.ID, Amount: 1})

	_, err := f.svc.Create(context.Background(), f.author.ID, input)
	assert.Contains(t, fieldsOf(t, err), "ingredients")
	assert.Zero(t, f.recipeCount(t))
}

func TestCreateRecipeCookingTimeBounds(t *testing.T) {
	f := newRecipeFixture(t)

	for _, minutes := range []int{0, 91} {
		input := f.input()
		input.CookingTime = minutes

		_, err := f.svc.Create(context.Background(), f.author.ID, input)
		assert.Contains(t, fieldsOf(t, err), "cooking_time", "cooking_time=%d", minutes)
	}

	for _, minutes := range []int{1, 90} {
		input := f.input()
		input.CookingTime = minutes

		_, err := f.svc.Create(context.Background(), f.author.ID, input)
		assert.NoError(t, err, "cooking_time=%d", minutes)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(t)

	tests := []struct {
		name   string
		mutate func(*RecipeInput)
		field  string
	}{
		{"no ingredients", func(in *RecipeInput) { in.Ingredients = nil }, "ingredients"},
		{"empty ingredients", func(in *RecipeInput) { in.Ingredients = []IngredientLine{} }, "ingredients"},
		{"zero amount", func(in *RecipeInput) { in.Ingredients[0].Amount = 0 }, "ingredients[0].amount"},
		{"negative amount", func(in *RecipeInput) { in.Ingredients[1].Amount = -3 }, "ingredients[1].amount"},
		{"no tags", func(in *RecipeInput) { in.Tags = nil }, "tags"},
		{"duplicate tags", func(in *RecipeInput) { in.Tags = []uint{f.lunch.ID, f.lunch.ID} }, "tags"},
		{"missing name", func(in *RecipeInput) { in.Name = "" }, "name"},
		{"missing text", func(in *RecipeInput) { in.Text = "" }, "text"},
		{"unknown ingredient", func(in *RecipeInput) { in.Ingredients[0].ID = 9999 }, "ingredients"},
		{"unknown tag", func(in *RecipeInput) { in.Tags = []uint{9999} }, "tags"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := f.input()
			tc.mutate(&input)

			_, err := f.svc.Create(context.Background(), f.author.ID, input)
			assert.Contains(t, fieldsOf(t, err), tc.field)
		})
	}
	assert.Zero(t, f.recipeCount(t))
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)

	input := f.input()
	input.Name = "Salted water"
	input.Image = ""
	input.Ingredients = []IngredientLine{{ID: f.salt.ID, Amount: 7}}
	input.Tags = []uint{f.dinner.ID}

	updated, err := f.svc.Update(ctx, created.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "Salted water", updated.Name)
	assert.Equal(t, "recipes/bread.png", updated.Image, "empty image keeps the old one")
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, f.salt.ID, updated.Ingredients[0].IngredientID)
	assert.Equal(t, 7, updated.Ingredients[0].Amount)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)

	var lines int64
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Count(&lines).Error)
	assert.EqualValues(t, 1, lines)
}

func TestUpdateRecipeFailureKeepsOldState(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)

	input := f.input()
	input.Name = "Changed"
	input.Tags = []uint{9999}

	_, err = f.svc.Update(ctx, created.ID, input)
	assert.Contains(t, fieldsOf(t, err), "tags")

	current, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread", current.Name)
	assert.Len(t, current.Ingredients, 2)
	assert.Len(t, current.Tags, 1)
}

func TestUpdateMissingRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	_, err := f.svc.Update(context.Background(), 404, f.input())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)

	relations := NewRelationService(f.db)
	_, err = relations.Add(ctx, KindFavorite, f.author.ID, created.ID)
	require.NoError(t, err)
	_, err = relations.Add(ctx, KindShoppingCart, f.author.ID, created.ID)
	require.NoError(t, err)

	deleted, err := f.svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "recipes/bread.png", deleted.Image)
	assert.Zero(t, f.recipeCount(t))

	for _, model := range []any{&models.Favorite{}, &models.ShoppingCart{}, &models.RecipeIngredient{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	_, err = f.svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecipesFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	other := dbtest.CreateUser(t, f.db, "other")

	soup := dbtest.CreateRecipe(t, f.db, f.author, "Soup", nil, f.lunch)
	stew := dbtest.CreateRecipe(t, f.db, f.author, "Stew", nil, f.dinner)
	salad := dbtest.CreateRecipe(t, f.db, other, "Salad", nil, f.lunch, f.dinner)
	// Pin creation order so "newest first" is deterministic.
	base := time.Now().Add(-time.Hour)
	for i, r := range []models.Recipe{soup, stew, salad} {
		require.NoError(t, f.db.Model(&models.Recipe{}).Where("id = ?", r.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	relations := NewRelationService(f.db)
	_, err := relations.Add(ctx, KindFavorite, other.ID, soup.ID)
	require.NoError(t, err)
	_, err = relations.Add(ctx, KindShoppingCart, other.ID, stew.ID)
	require.NoError(t, err)

	names := func(filter RecipeFilter) []string {
		recipes, total, err := f.svc.List(ctx, filter, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, len(recipes), total)
		out := make([]string, 0, len(recipes))
		for _, r := range recipes {
			out = append(out, r.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Salad", "Stew", "Soup"}, names(RecipeFilter{}))
	assert.Equal(t, []string{"Stew", "Soup"}, names(RecipeFilter{AuthorID: f.author.ID}))
	assert.Equal(t, []string{"Salad", "Soup"}, names(RecipeFilter{TagSlugs: []string{"lunch"}}))
	assert.Equal(t, []string{"Salad", "Stew", "Soup"}, names(RecipeFilter{TagSlugs: []string{"lunch", "dinner"}}))
	assert.Equal(t, []string{"Soup"}, names(RecipeFilter{FavoritedBy: other.ID}))
	assert.Equal(t, []string{"Stew"}, names(RecipeFilter{InCartOf: other.ID}))
	assert.Empty(t, names(RecipeFilter{FavoritedBy: other.ID, InCartOf: other.ID}))
}

func TestListRecipesPagination(t *testing.T) {
	f := newRecipeFixture(t)
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		dbtest.CreateRecipe(t, f.db, f.author, name, nil)
	}

	page, total, err := f.svc.List(context.Background(), RecipeFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)
}

func TestCountAndLatestByAuthor(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	other := dbtest.CreateUser(t, f.db, "other")
	for _, name := range []string{"A", "B", "C"} {
		dbtest.CreateRecipe(t, f.db, f.author, name, nil)
	}
	dbtest.CreateRecipe(t, f.db, other, "D", nil)

	counts, err := f.svc.CountByAuthor(ctx, []uint{f.author.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{f.author.ID: 3, other.ID: 1}, counts)

	latest, err := f.svc.LatestByAuthor(ctx, []uint{f.author.ID, other.ID}, 2)
	require.NoError(t, err)
	assert.Len(t, latest[f.author.ID], 2)
	assert.Len(t, latest[other.ID], 1)

	all, err := f.svc.LatestByAuthor(ctx, []uint{f.author.ID}, 0)
	require.NoError(t, err)
	assert.Len(t, all[f.author.ID], 3)
}
