package seed

import (
	"context"
	"strings"
	"testing"

	"foodgram/backend/internal/database/dbtest"
	"foodgram/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIngredientsCSV(t *testing.T) {
	in := "name,measurement_unit\nabricots,g\n\"salt, sea\", pinch\n"
	items, err := ParseIngredients(strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{
		{Name: "abricots", MeasurementUnit: "g"},
		{Name: "salt, sea", MeasurementUnit: "pinch"},
	}, items)
}

func TestParseIngredientsJSON(t *testing.T) {
	in := `[{"name":"milk","measurement_unit":"ml"}]`
	items, err := ParseIngredients(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{{Name: "milk", MeasurementUnit: "ml"}}, items)
}

func TestParseIngredientsRejectsBlankFields(t *testing.T) {
	_, err := ParseIngredients(strings.NewReader("milk,\n"), FormatCSV)
	assert.ErrorContains(t, err, "line 1")

	_, err = ParseIngredients(strings.NewReader(`[{"name":"milk"}]`), FormatJSON)
	assert.ErrorContains(t, err, "ingredient 0")
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("data/ingredients.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = FormatFromPath("ingredients.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = FormatFromPath("ingredients.xml")
	assert.Error(t, err)
}

func TestLoadIngredientsIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	in := "milk,ml\neggs,pcs\nmilk,l\n"

	res, err := LoadIngredients(ctx, db, strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, Result{Read: 3, Created: 3}, res)

	res, err = LoadIngredients(ctx, db, strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, Result{Read: 3, Created: 0}, res)

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestLoadDefaultTags(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	res, err := LoadDefaultTags(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultTags), res.Created)

	res, err = LoadDefaultTags(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, res.Created)

	var lunch models.Tag
	require.NoError(t, db.Where("slug = ?", "lunch").First(&lunch).Error)
	assert.Equal(t, "#49B64E", lunch.Color)
}
