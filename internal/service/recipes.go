package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"foodgram/backend/internal/models"
	"foodgram/backend/internal/store"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// IngredientLine is one submitted (ingredient, amount) pair.
type IngredientLine struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"gt=0"`
}

// RecipeInput carries everything needed to create or fully update a recipe.
type RecipeInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Text        string           `json:"text" validate:"required"`
	CookingTime int              `json:"cooking_time" validate:"min=1,max=90"`
	Ingredients []IngredientLine `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []uint           `json:"tags" validate:"required,min=1,unique,dive,required"`

	// Image is the stored image path. Empty on update keeps the old one.
	Image string `json:"-"`
}

// RecipeFilter narrows recipe listings. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID uint
	TagSlugs []string
	// FavoritedBy and InCartOf restrict results to the given user's
	// favorites or shopping cart.
	FavoritedBy uint
	InCartOf    uint
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the input without touching storage.
func (in *RecipeInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fromValidator(err)
	}
	return nil
}

func (in *RecipeInput) ingredientIDs() []uint {
	ids := make([]uint, 0, len(in.Ingredients))
	for _, line := range in.Ingredients {
		ids = append(ids, line.ID)
	}
	return ids
}

type RecipeService struct {
	db        *gorm.DB
	relations *RelationService
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db, relations: NewRelationService(db)}
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// Get loads a recipe with its author, ingredients and tags.
func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

// Create validates input and stores the recipe, its tags and its ingredient
// lines in a single transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, input RecipeInput) (*models.Recipe, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		Image:       input.Image,
	}
	err := store.InsertAtomic(ctx, s.db, func(tx *gorm.DB) error {
		tags, err := s.resolveReferences(tx, input)
		if err != nil {
			return err
		}
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(&recipe).Error; err != nil {
			return err
		}
		return attach(tx, &recipe, tags, input.Ingredients)
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, recipe.ID)
}

// Update overwrites the recipe's fields and replaces its ingredient and tag
// sets, all or nothing.
func (s *RecipeService) Update(ctx context.Context, id uint, input RecipeInput) (*models.Recipe, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	err := store.InsertAtomic(ctx, s.db, func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			return err
		}
		tags, err := s.resolveReferences(tx, input)
		if err != nil {
			return err
		}

		fields := map[string]any{
			"name":         input.Name,
			"text":         input.Text,
			"cooking_time": input.CookingTime,
		}
		if input.Image != "" {
			fields["image"] = input.Image
		}
		if err := tx.Model(&recipe).Updates(fields).Error; err != nil {
			return err
		}

		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return attach(tx, &recipe, tags, input.Ingredients)
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, id)
}

// Delete removes the recipe and every row that references it. The deleted
// recipe is returned so callers can clean up its image.
func (s *RecipeService) Delete(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := store.InsertAtomic(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&recipe, id).Error; err != nil {
			return err
		}
		for _, dependent := range []any{&models.Favorite{}, &models.ShoppingCart{}, &models.RecipeIngredient{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

// resolveReferences checks that every submitted ingredient and tag exists and
// returns the tags.
func (s *RecipeService) resolveReferences(tx *gorm.DB, input RecipeInput) ([]models.Tag, error) {
	verr := &ValidationError{}

	var found int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", input.ingredientIDs()).Count(&found).Error; err != nil {
		return nil, err
	}
	if int(found) != len(input.Ingredients) {
		verr.Add("ingredients", "unknown ingredient id")
	}

	var tags []models.Tag
	if err := tx.Where("id IN ?", input.Tags).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(input.Tags) {
		verr.Add("tags", "unknown tag id")
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return tags, nil
}

func attach(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag, lines []IngredientLine) error {
	if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
		return err
	}

	rows := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: line.ID,
			Amount:       line.Amount,
		})
	}
	return tx.Omit("Ingredient").Create(&rows).Error
}

// List returns one page of recipes matching filter, newest first, together
// with the total number of matches.
func (s *RecipeService) List(ctx context.Context, filter RecipeFilter, page, limit int) ([]models.Recipe, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		base = base.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		base = base.Where("recipes.id IN (?)", tagged)
	}
	if filter.FavoritedBy != 0 {
		base = base.Where("recipes.id IN (?)", s.relations.TargetsQuery(KindFavorite, filter.FavoritedBy))
	}
	if filter.InCartOf != 0 {
		base = base.Where("recipes.id IN (?)", s.relations.TargetsQuery(KindShoppingCart, filter.InCartOf))
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	recipes := []models.Recipe{}
	err := preloadRecipe(base).
		Order("recipes.created_at DESC, recipes.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// CountByAuthor returns how many recipes each of the given authors has.
func (s *RecipeService) CountByAuthor(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

// LatestByAuthor returns up to limit newest recipes per author. A limit
// below 1 returns all of them.
func (s *RecipeService) LatestByAuthor(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, error) {
	byAuthor := make(map[uint][]models.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return byAuthor, nil
	}

	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	for _, r := range recipes {
		if limit > 0 && len(byAuthor[r.AuthorID]) >= limit {
			continue
		}
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], r)
	}
	return byAuthor, nil
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
