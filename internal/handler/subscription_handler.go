package handler

import (
	"errors"
	"net/http"
	"strconv"

	"foodgram/backend/internal/auth"
	"foodgram/backend/internal/database"
	"foodgram/backend/internal/metrics"
	"foodgram/backend/internal/models"
	"foodgram/backend/internal/service"
	"foodgram/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// SubscriptionResponse describes a followed author with a preview of their
// recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// GetSubscriptions godoc
// @Summary      List followed authors
// @Description  Authors the caller is subscribed to, each with their newest recipes and recipe count.
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        page          query  int  false  "Page number" default(1)
// @Param        limit         query  int  false  "Items per page" default(6)
// @Param        recipes_limit query  int  false  "Recipes shown per author; all when omitted"
// @Success      200  {object}  PaginatedResponse[SubscriptionResponse]
// @Failure      401  {object}  ErrorResponse
// @Router       /users/subscriptions [get]
func GetSubscriptions(c *gin.Context) {
	ctx := c.Request.Context()
	viewerID := auth.CurrentUserID(c)
	page, limit := pageParams(c)

	recipesLimit := 0
	if raw := c.Query("recipes_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recipes_limit must be a non-negative integer"})
			return
		}
		recipesLimit = n
	}

	relations := service.NewRelationService(database.DB)
	query := database.DB.WithContext(ctx).Model(&models.User{}).
		Where("id IN (?)", relations.TargetsQuery(service.KindSubscription, viewerID)).
		Order("username")

	authors, total, err := Paginate[models.User](query, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	recipes := service.NewRecipeService(database.DB)
	counts, err := recipes.CountByAuthor(ctx, ids)
	if err != nil {
		respondError(c, err)
		return
	}
	latest, err := recipes.LatestByAuthor(ctx, ids, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]SubscriptionResponse, len(authors))
	for i, a := range authors {
		data[i] = newSubscriptionResponse(a, latest[a.ID], counts[a.ID])
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(data, total, page, limit))
}

// Subscribe godoc
// @Summary      Follow an author
// @Description  Subscribes the caller to the author's recipes.
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Author ID"
// @Param        recipes_limit query  int  false  "Recipes shown; all when omitted"
// @Success      201  {object}  SubscriptionResponse
// @Failure      400  {object}  ErrorResponse "Already subscribed or subscribing to yourself"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Author not found"
// @Router       /users/{id}/subscribe [post]
func Subscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	_, err := service.NewRelationService(database.DB).Add(ctx, service.KindSubscription, auth.CurrentUserID(c), authorID)
	recordMutation(service.KindSubscription, "add", err)
	if err != nil {
		respondError(c, err)
		return
	}

	author, err := store.FindByID[models.User](ctx, database.DB, authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	recipesLimit, _ := strconv.Atoi(c.Query("recipes_limit"))
	recipes := service.NewRecipeService(database.DB)
	counts, err := recipes.CountByAuthor(ctx, []uint{authorID})
	if err != nil {
		respondError(c, err)
		return
	}
	latest, err := recipes.LatestByAuthor(ctx, []uint{authorID}, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newSubscriptionResponse(*author, latest[authorID], counts[authorID])
	resp.IsSubscribed = true
	c.JSON(http.StatusCreated, resp)
}

// Unsubscribe godoc
// @Summary      Unfollow an author
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Author ID"
// @Success      200  {object}  map[string]string "{"status": "Unsubscribed"}"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not subscribed to this author"
// @Router       /users/{id}/subscribe [delete]
func Unsubscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := service.NewRelationService(database.DB).Remove(c.Request.Context(), service.KindSubscription, auth.CurrentUserID(c), authorID)
	recordMutation(service.KindSubscription, "remove", err)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not subscribed to this author"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Unsubscribed"})
}

func newSubscriptionResponse(author models.User, recipes []models.Recipe, count int64) SubscriptionResponse {
	short := make([]RecipeShortResponse, len(recipes))
	for i, r := range recipes {
		short[i] = newRecipeShortResponse(r)
	}
	return SubscriptionResponse{
		UserResponse: newUserResponse(author, true),
		Recipes:      short,
		RecipesCount: count,
	}
}

// recordMutation counts a relation change by its outcome.
func recordMutation(kind service.RelationKind, action string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, service.ErrDuplicate):
		outcome = "duplicate"
	case errors.Is(err, service.ErrSelfReference):
		outcome = "self_reference"
	case errors.Is(err, service.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RecordRelationMutation(string(kind), action, outcome)
}
