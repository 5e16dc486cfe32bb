package service

import (
	"context"
	"testing"

	"foodgram/backend/internal/database/dbtest"
	"foodgram/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeToSelf(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.CreateUser(t, db, "alice")

	_, err := NewRelationService(db).Add(context.Background(), KindSubscription, user.ID, user.ID)
	assert.ErrorIs(t, err, ErrSelfReference)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFavoriteLifecycle(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, db, "alice")
	recipe := dbtest.CreateRecipe(t, db, user, "Pancakes", nil)
	relations := NewRelationService(db)

	record, err := relations.Add(ctx, KindFavorite, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, KindFavorite, record.Kind)
	assert.Equal(t, user.ID, record.OwnerID)
	assert.Equal(t, recipe.ID, record.TargetID)
	assert.NotZero(t, record.ID)

	_, err = relations.Add(ctx, KindFavorite, user.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err := relations.Exists(ctx, KindFavorite, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, relations.Remove(ctx, KindFavorite, user.ID, recipe.ID))

	exists, err = relations.Exists(ctx, KindFavorite, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = relations.Remove(ctx, KindFavorite, user.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelationKindsAreIndependent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, db, "alice")
	recipe := dbtest.CreateRecipe(t, db, user, "Pancakes", nil)
	relations := NewRelationService(db)

	_, err := relations.Add(ctx, KindFavorite, user.ID, recipe.ID)
	require.NoError(t, err)

	inCart, err := relations.Exists(ctx, KindShoppingCart, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, inCart)

	_, err = relations.Add(ctx, KindShoppingCart, user.ID, recipe.ID)
	require.NoError(t, err)
}

func TestAddMissingTarget(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, db, "alice")
	relations := NewRelationService(db)

	_, err := relations.Add(ctx, KindFavorite, user.ID, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = relations.Add(ctx, KindShoppingCart, user.ID, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = relations.Add(ctx, KindSubscription, user.ID, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionLifecycle(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	reader := dbtest.CreateUser(t, db, "reader")
	author := dbtest.CreateUser(t, db, "author")
	relations := NewRelationService(db)

	_, err := relations.Add(ctx, KindSubscription, reader.ID, author.ID)
	require.NoError(t, err)

	_, err = relations.Add(ctx, KindSubscription, reader.ID, author.ID)
	assert.ErrorIs(t, err, ErrDuplicate)

	// Following is one-directional.
	back, err := relations.Exists(ctx, KindSubscription, author.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, back)

	require.NoError(t, relations.Remove(ctx, KindSubscription, reader.ID, author.ID))
	assert.ErrorIs(t, relations.Remove(ctx, KindSubscription, reader.ID, author.ID), ErrNotFound)
}

func TestUniqueIndexRejectsRacingInsert(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.CreateUser(t, db, "alice")
	recipe := dbtest.CreateRecipe(t, db, user, "Pancakes", nil)

	require.NoError(t, db.Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error)
	err := db.Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error
	assert.ErrorIs(t, translate(err), ErrDuplicate)
}

func TestExistsBatch(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, db, "alice")
	first := dbtest.CreateRecipe(t, db, user, "First", nil)
	second := dbtest.CreateRecipe(t, db, user, "Second", nil)
	third := dbtest.CreateRecipe(t, db, user, "Third", nil)
	relations := NewRelationService(db)

	_, err := relations.Add(ctx, KindFavorite, user.ID, first.ID)
	require.NoError(t, err)
	_, err = relations.Add(ctx, KindFavorite, user.ID, third.ID)
	require.NoError(t, err)

	set, err := relations.ExistsBatch(ctx, KindFavorite, user.ID, []uint{first.ID, second.ID, third.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{first.ID: true, third.ID: true}, set)

	anonymous, err := relations.ExistsBatch(ctx, KindFavorite, 0, []uint{first.ID})
	require.NoError(t, err)
	assert.Empty(t, anonymous)
}

func TestUnknownKind(t *testing.T) {
	db := dbtest.New(t)
	_, err := NewRelationService(db).Add(context.Background(), RelationKind("like"), 1, 2)
	assert.ErrorContains(t, err, "unknown relation kind")
}
