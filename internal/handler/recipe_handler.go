package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"foodgram/backend/internal/auth"
	"foodgram/backend/internal/database"
	"foodgram/backend/internal/logging"
	"foodgram/backend/internal/media"
	"foodgram/backend/internal/metrics"
	"foodgram/backend/internal/models"
	"foodgram/backend/internal/service"
	"foodgram/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// Media stores uploaded recipe images. The server points it at MEDIA_DIR.
var Media = media.NewStore("media")

// MediaURLPrefix is where Media's root is served.
const MediaURLPrefix = "/media/"

// region --- DTOs ---

// RecipeInput is the body of recipe create and update requests. Image is a
// base64 data URI; on update an empty image keeps the current one.
type RecipeInput struct {
	Name        string                   `json:"name" example:"Pancakes"`
	Text        string                   `json:"text" example:"Mix and fry."`
	CookingTime int                      `json:"cooking_time" example:"20"`
	Ingredients []service.IngredientLine `json:"ingredients"`
	Tags        []uint                   `json:"tags"`
	Image       string                   `json:"image" example:"data:image/png;base64,iVBORw0KGgo..."`
}

type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeShortResponse is the compact form used in subscriptions, relation
// answers and feed events.
type RecipeShortResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// recipeFlags holds the viewer-specific annotations of a recipe listing.
type recipeFlags struct {
	favorited  map[uint]bool
	inCart     map[uint]bool
	subscribed map[uint]bool
}

func imageURL(path string) string {
	if path == "" {
		return ""
	}
	return MediaURLPrefix + path
}

func newRecipeResponse(r models.Recipe, flags recipeFlags) RecipeResponse {
	tags := make([]TagResponse, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, newTagResponse(t))
	}
	lines := make([]RecipeIngredientResponse, 0, len(r.Ingredients))
	for _, line := range r.Ingredients {
		lines = append(lines, RecipeIngredientResponse{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           newUserResponse(r.Author, flags.subscribed[r.AuthorID]),
		Ingredients:      lines,
		IsFavorited:      flags.favorited[r.ID],
		IsInShoppingCart: flags.inCart[r.ID],
		Name:             r.Name,
		Image:            imageURL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func newRecipeShortResponse(r models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       imageURL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// endregion

// region --- Recipe Handlers ---

// GetRecipes godoc
// @Summary      List recipes
// @Description  Paginated recipes, newest first. is_favorited and is_in_shopping_cart filters only apply to authenticated callers.
// @Tags         recipes
// @Produce      json
// @Param        author              query  int     false  "Author ID"
// @Param        tags                query  string  false  "Tag slugs, repeated or comma-separated"
// @Param        is_favorited        query  bool    false  "Only the caller's favorites"
// @Param        is_in_shopping_cart query  bool    false  "Only recipes in the caller's cart"
// @Param        page                query  int     false  "Page number" default(1)
// @Param        limit               query  int     false  "Items per page" default(6)
// @Success      200  {object}  PaginatedResponse[RecipeResponse]
// @Failure      400  {object}  ErrorResponse
// @Router       /recipes [get]
func GetRecipes(c *gin.Context) {
	viewerID := auth.CurrentUserID(c)
	page, limit := pageParams(c)

	var filter service.RecipeFilter
	if raw := c.Query("author"); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid author"})
			return
		}
		filter.AuthorID = uint(author)
	}
	for _, raw := range c.QueryArray("tags") {
		filter.TagSlugs = append(filter.TagSlugs, splitCommaSeparated(raw)...)
	}
	if viewerID != 0 {
		if on, _ := strconv.ParseBool(c.Query("is_favorited")); on {
			filter.FavoritedBy = viewerID
		}
		if on, _ := strconv.ParseBool(c.Query("is_in_shopping_cart")); on {
			filter.InCartOf = viewerID
		}
	}

	recipes, total, err := service.NewRecipeService(database.DB).List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := annotateRecipes(c.Request.Context(), viewerID, recipes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(data, total, page, limit))
}

// GetRecipeByID godoc
// @Summary      Get a recipe
// @Tags         recipes
// @Produce      json
// @Param        id   path      int  true  "Recipe ID"
// @Success      200  {object}  RecipeResponse
// @Failure      404  {object}  ErrorResponse "Recipe not found"
// @Router       /recipes/{id} [get]
func GetRecipeByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipe, err := service.NewRecipeService(database.DB).Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecipe(c, http.StatusOK, *recipe)
}

// CreateRecipe godoc
// @Summary      Publish a recipe
// @Description  Creates a recipe with its ingredients and tags in one transaction and notifies the author's subscribers.
// @Tags         recipes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RecipeInput true "Recipe"
// @Success      201  {object}  RecipeResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /recipes [post]
func CreateRecipe(c *gin.Context) {
	var input RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Image == "" {
		respondError(c, &service.ValidationError{Fields: map[string][]string{"image": {"this field is required"}}})
		return
	}

	ctx := c.Request.Context()
	serviceInput, err := toServiceInput(input)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := service.NewRecipeService(database.DB).Create(ctx, auth.CurrentUserID(c), serviceInput)
	if err != nil {
		removeImage(ctx, serviceInput.Image)
		respondError(c, err)
		return
	}

	publishRecipe(ctx, *recipe)
	respondRecipe(c, http.StatusCreated, *recipe)
}

// UpdateRecipe godoc
// @Summary      Update a recipe
// @Description  Replaces the recipe's fields, ingredients and tags. Only the author or an admin may do this.
// @Tags         recipes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int          true  "Recipe ID"
// @Param        input body  RecipeInput  true  "Recipe"
// @Success      200  {object}  RecipeResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recipes/{id} [patch]
func UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	recipes := service.NewRecipeService(database.DB)

	current, err := recipes.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := authorizeWrite(c, current.AuthorID); err != nil {
		respondError(c, err)
		return
	}

	var input RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	serviceInput, err := toServiceInput(input)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := recipes.Update(ctx, id, serviceInput)
	if err != nil {
		removeImage(ctx, serviceInput.Image)
		respondError(c, err)
		return
	}
	if serviceInput.Image != "" && current.Image != recipe.Image {
		removeImage(ctx, current.Image)
	}
	respondRecipe(c, http.StatusOK, *recipe)
}

// DeleteRecipe godoc
// @Summary      Delete a recipe
// @Description  Deletes the recipe together with favorites and cart entries pointing at it.
// @Tags         recipes
// @Security     BearerAuth
// @Param        id   path  int  true  "Recipe ID"
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recipes/{id} [delete]
func DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	recipes := service.NewRecipeService(database.DB)

	current, err := recipes.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := authorizeWrite(c, current.AuthorID); err != nil {
		respondError(c, err)
		return
	}

	deleted, err := recipes.Delete(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	removeImage(ctx, deleted.Image)
	c.Status(http.StatusNoContent)
}

// endregion

// region --- Relation Handlers ---

var relationMessages = map[service.RelationKind]struct{ removed, missing string }{
	service.KindFavorite:     {"Recipe removed from favorites", "Recipe is not in favorites"},
	service.KindShoppingCart: {"Recipe removed from shopping cart", "Recipe is not in shopping cart"},
}

// AddFavorite godoc
// @Summary      Add a recipe to favorites
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Recipe ID"
// @Success      201  {object}  RecipeShortResponse
// @Failure      400  {object}  ErrorResponse "Already in favorites"
// @Failure      404  {object}  ErrorResponse "Recipe not found"
// @Router       /recipes/{id}/favorite [post]
func AddFavorite(c *gin.Context) { addRecipeRelation(c, service.KindFavorite) }

// RemoveFavorite godoc
// @Summary      Remove a recipe from favorites
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Recipe ID"
// @Success      200  {object}  map[string]string "{"status": "Recipe removed from favorites"}"
// @Failure      404  {object}  ErrorResponse "Recipe is not in favorites"
// @Router       /recipes/{id}/favorite [delete]
func RemoveFavorite(c *gin.Context) { removeRecipeRelation(c, service.KindFavorite) }

// AddToShoppingCart godoc
// @Summary      Add a recipe to the shopping cart
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Recipe ID"
// @Success      201  {object}  RecipeShortResponse
// @Failure      400  {object}  ErrorResponse "Already in shopping cart"
// @Failure      404  {object}  ErrorResponse "Recipe not found"
// @Router       /recipes/{id}/shopping_cart [post]
func AddToShoppingCart(c *gin.Context) { addRecipeRelation(c, service.KindShoppingCart) }

// RemoveFromShoppingCart godoc
// @Summary      Remove a recipe from the shopping cart
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Recipe ID"
// @Success      200  {object}  map[string]string "{"status": "Recipe removed from shopping cart"}"
// @Failure      404  {object}  ErrorResponse "Recipe is not in shopping cart"
// @Router       /recipes/{id}/shopping_cart [delete]
func RemoveFromShoppingCart(c *gin.Context) { removeRecipeRelation(c, service.KindShoppingCart) }

func addRecipeRelation(c *gin.Context, kind service.RelationKind) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	_, err := service.NewRelationService(database.DB).Add(ctx, kind, auth.CurrentUserID(c), recipeID)
	recordMutation(kind, "add", err)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := store.FindByID[models.Recipe](ctx, database.DB, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShortResponse(*recipe))
}

func removeRecipeRelation(c *gin.Context, kind service.RelationKind) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := service.NewRelationService(database.DB).Remove(c.Request.Context(), kind, auth.CurrentUserID(c), recipeID)
	recordMutation(kind, "remove", err)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": relationMessages[kind].missing})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": relationMessages[kind].removed})
}

// DownloadShoppingCart godoc
// @Summary      Download the shopping list
// @Description  Plain-text list of every ingredient in the caller's cart, amounts summed per name and unit.
// @Tags         recipes
// @Produce      plain
// @Security     BearerAuth
// @Success      200  {string}  string  "Список покупок:..."
// @Failure      401  {object}  ErrorResponse
// @Router       /recipes/download_shopping_cart [get]
func DownloadShoppingCart(c *gin.Context) {
	report, err := service.NewShoppingListService(database.DB).Generate(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.ShoppingListDownloads.Inc()

	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

// endregion

// region --- Helpers ---

// annotateRecipes resolves favorites, cart entries and author subscriptions
// for the whole page with one query each.
func annotateRecipes(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	relations := service.NewRelationService(database.DB)
	var flags recipeFlags
	var err error
	if flags.favorited, err = relations.ExistsBatch(ctx, service.KindFavorite, viewerID, recipeIDs); err != nil {
		return nil, err
	}
	if flags.inCart, err = relations.ExistsBatch(ctx, service.KindShoppingCart, viewerID, recipeIDs); err != nil {
		return nil, err
	}
	if flags.subscribed, err = relations.ExistsBatch(ctx, service.KindSubscription, viewerID, authorIDs); err != nil {
		return nil, err
	}

	out := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = newRecipeResponse(r, flags)
	}
	return out, nil
}

func respondRecipe(c *gin.Context, status int, recipe models.Recipe) {
	data, err := annotateRecipes(c.Request.Context(), auth.CurrentUserID(c), []models.Recipe{recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, data[0])
}

// authorizeWrite fails with errForbidden unless the caller owns the
// resource or is an admin.
func authorizeWrite(c *gin.Context, ownerID uint) error {
	var caller models.User
	if err := database.DB.WithContext(c.Request.Context()).Select("id", "role").First(&caller, auth.CurrentUserID(c)).Error; err != nil {
		return errForbidden
	}
	if !service.Capabilities(caller.Role, ownerID, caller.ID).Has(service.CapWrite) {
		return errForbidden
	}
	return nil
}

// toServiceInput stores the uploaded image, if any, and converts the body.
func toServiceInput(input RecipeInput) (service.RecipeInput, error) {
	out := service.RecipeInput{
		Name:        strings.TrimSpace(input.Name),
		Text:        input.Text,
		CookingTime: input.CookingTime,
		Ingredients: input.Ingredients,
		Tags:        input.Tags,
	}
	// Validation runs before the image touches disk.
	if err := out.Validate(); err != nil {
		return out, err
	}
	if input.Image != "" {
		path, err := Media.SaveBase64(input.Image)
		if err != nil {
			return out, err
		}
		out.Image = path
	}
	return out, nil
}

func removeImage(ctx context.Context, path string) {
	if err := Media.Remove(path); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", path).Msg("failed to remove recipe image")
	}
}

// Helper to split comma-separated strings
func splitCommaSeparated(s string) []string {
	var result []string
	parts := strings.Split(s, ",")
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// endregion
