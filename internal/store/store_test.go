package store

import (
	"context"
	"errors"
	"testing"

	"foodgram/backend/internal/database/dbtest"
	"foodgram/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFindByID(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, db, "alice")
	recipe := dbtest.CreateRecipe(t, db, user, "Soup", nil)

	got, err := FindByID[models.Recipe](ctx, db, recipe.ID, "Author")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author.Username)

	_, err = FindByID[models.Recipe](ctx, db, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInsertAtomicRollsBack(t *testing.T) {
	db := dbtest.New(t)
	boom := errors.New("boom")

	err := InsertAtomic(context.Background(), db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.Ingredient{Name: "Salt", MeasurementUnit: "g"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := ExistsWhere[models.Ingredient](context.Background(), db, "name = ?", "Salt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteWhereAndPluck(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	for _, unit := range []string{"g", "kg", "pcs"} {
		dbtest.CreateIngredient(t, db, "Sugar", unit)
	}

	ids, err := PluckIDs[models.Ingredient](ctx, db, "id", "name = ?", "Sugar")
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	n, err := DeleteWhere[models.Ingredient](ctx, db, "measurement_unit IN ?", []string{"g", "kg"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = DeleteWhere[models.Ingredient](ctx, db, "measurement_unit = ?", "g")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSumGroupedBy(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.CreateUser(t, db, "alice")
	salt := dbtest.CreateIngredient(t, db, "Salt", "g")
	dbtest.CreateRecipe(t, db, user, "A", map[uint]int{salt.ID: 2})
	dbtest.CreateRecipe(t, db, user, "B", map[uint]int{salt.ID: 3})

	type row struct {
		Name  string
		Total int64
	}
	q := db.Table("recipe_ingredients").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id")
	rows, err := SumGroupedBy[row](context.Background(), q, "recipe_ingredients.amount", "total", "ingredients.name")
	require.NoError(t, err)
	assert.Equal(t, []row{{Name: "Salt", Total: 5}}, rows)
}
