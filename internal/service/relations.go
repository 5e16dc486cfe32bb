package service

import (
	"context"
	"fmt"
	"time"

	"foodgram/backend/internal/models"
	"foodgram/backend/internal/store"

	"gorm.io/gorm"
)

// RelationKind selects one of the user-owned pair relations.
type RelationKind string

const (
	KindFavorite     RelationKind = "favorite"
	KindShoppingCart RelationKind = "shopping_cart"
	KindSubscription RelationKind = "subscription"
)

// RelationRecord is the row created by RelationService.Add.
type RelationRecord struct {
	ID        uint         `json:"id"`
	Kind      RelationKind `json:"kind"`
	OwnerID   uint         `json:"owner_id"`
	TargetID  uint         `json:"target_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// RelationService enforces the rules for favorites, cart entries and
// subscriptions and answers membership queries for listings.
type RelationService struct {
	db *gorm.DB
}

func NewRelationService(db *gorm.DB) *RelationService {
	return &RelationService{db: db}
}

// targetColumn is the foreign key holding the target of each kind; the
// owner is always user_id.
func (k RelationKind) targetColumn() string {
	if k == KindSubscription {
		return "author_id"
	}
	return "recipe_id"
}

func (k RelationKind) validate() error {
	switch k {
	case KindFavorite, KindShoppingCart, KindSubscription:
		return nil
	default:
		return fmt.Errorf("unknown relation kind %q", k)
	}
}

func (s *RelationService) targetExists(ctx context.Context, kind RelationKind, targetID uint) (bool, error) {
	if kind == KindSubscription {
		return store.ExistsWhere[models.User](ctx, s.db, "id = ?", targetID)
	}
	return store.ExistsWhere[models.Recipe](ctx, s.db, "id = ?", targetID)
}

// Add creates the (owner, target) relation. It fails with ErrSelfReference
// for a subscription to oneself, ErrNotFound when the target does not exist
// and ErrDuplicate when the pair is already present.
func (s *RelationService) Add(ctx context.Context, kind RelationKind, ownerID, targetID uint) (*RelationRecord, error) {
	if err := kind.validate(); err != nil {
		return nil, err
	}
	if kind == KindSubscription && ownerID == targetID {
		return nil, ErrSelfReference
	}

	found, err := s.targetExists(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	exists, err := s.Exists(ctx, kind, ownerID, targetID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}

	// The unique index still guards the window between the check and the
	// insert; translate turns that violation into ErrDuplicate.
	record := &RelationRecord{Kind: kind, OwnerID: ownerID, TargetID: targetID}
	switch kind {
	case KindFavorite:
		row := models.Favorite{UserID: ownerID, RecipeID: targetID}
		err = s.db.WithContext(ctx).Create(&row).Error
		record.ID, record.CreatedAt = row.ID, row.CreatedAt
	case KindShoppingCart:
		row := models.ShoppingCart{UserID: ownerID, RecipeID: targetID}
		err = s.db.WithContext(ctx).Create(&row).Error
		record.ID, record.CreatedAt = row.ID, row.CreatedAt
	case KindSubscription:
		row := models.Subscription{UserID: ownerID, AuthorID: targetID}
		err = s.db.WithContext(ctx).Create(&row).Error
		record.ID, record.CreatedAt = row.ID, row.CreatedAt
	}
	if err != nil {
		return nil, translate(err)
	}
	return record, nil
}

// Remove deletes the (owner, target) relation, or returns ErrNotFound when
// there was nothing to delete.
func (s *RelationService) Remove(ctx context.Context, kind RelationKind, ownerID, targetID uint) error {
	if err := kind.validate(); err != nil {
		return err
	}

	query := "user_id = ? AND " + kind.targetColumn() + " = ?"
	var (
		deleted int64
		err     error
	)
	switch kind {
	case KindFavorite:
		deleted, err = store.DeleteWhere[models.Favorite](ctx, s.db, query, ownerID, targetID)
	case KindShoppingCart:
		deleted, err = store.DeleteWhere[models.ShoppingCart](ctx, s.db, query, ownerID, targetID)
	case KindSubscription:
		deleted, err = store.DeleteWhere[models.Subscription](ctx, s.db, query, ownerID, targetID)
	}
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the (owner, target) relation is present.
func (s *RelationService) Exists(ctx context.Context, kind RelationKind, ownerID, targetID uint) (bool, error) {
	set, err := s.ExistsBatch(ctx, kind, ownerID, []uint{targetID})
	if err != nil {
		return false, err
	}
	return set[targetID], nil
}

// ExistsBatch answers Exists for every target in one query. Targets without
// a relation are absent from the returned set. An owner of 0 (anonymous
// viewer) never has relations.
func (s *RelationService) ExistsBatch(ctx context.Context, kind RelationKind, ownerID uint, targetIDs []uint) (map[uint]bool, error) {
	if err := kind.validate(); err != nil {
		return nil, err
	}

	set := make(map[uint]bool, len(targetIDs))
	if ownerID == 0 || len(targetIDs) == 0 {
		return set, nil
	}

	col := kind.targetColumn()
	query := "user_id = ? AND " + col + " IN ?"
	var (
		ids []uint
		err error
	)
	switch kind {
	case KindFavorite:
		ids, err = store.PluckIDs[models.Favorite](ctx, s.db, col, query, ownerID, targetIDs)
	case KindShoppingCart:
		ids, err = store.PluckIDs[models.ShoppingCart](ctx, s.db, col, query, ownerID, targetIDs)
	case KindSubscription:
		ids, err = store.PluckIDs[models.Subscription](ctx, s.db, col, query, ownerID, targetIDs)
	}
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// TargetsQuery returns a subquery selecting the target ids related to owner,
// for use in "id IN (?)" filters.
func (s *RelationService) TargetsQuery(kind RelationKind, ownerID uint) *gorm.DB {
	col := kind.targetColumn()
	switch kind {
	case KindFavorite:
		return s.db.Model(&models.Favorite{}).Select(col).Where("user_id = ?", ownerID)
	case KindShoppingCart:
		return s.db.Model(&models.ShoppingCart{}).Select(col).Where("user_id = ?", ownerID)
	default:
		return s.db.Model(&models.Subscription{}).Select(col).Where("user_id = ?", ownerID)
	}
}
