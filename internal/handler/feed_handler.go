package handler

import (
	"context"
	"io"
	"time"

	"foodgram/backend/internal/auth"
	"foodgram/backend/internal/database"
	"foodgram/backend/internal/hub"
	"foodgram/backend/internal/logging"
	"foodgram/backend/internal/metrics"
	"foodgram/backend/internal/models"
	"foodgram/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// feedKeepAlive is how often an idle stream gets a comment line so proxies
// keep it open.
var feedKeepAlive = 30 * time.Second

// RecipePublishedPayload is sent to followers when an author publishes.
type RecipePublishedPayload struct {
	Author UserResponse        `json:"author"`
	Recipe RecipeShortResponse `json:"recipe"`
}

// StreamFeed godoc
// @Summary      Stream followed authors' new recipes
// @Description  Server-sent events; each "recipe_published" event carries the author and the new recipe.
// @Tags         recipes
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {object}  RecipePublishedPayload
// @Failure      401  {object}  ErrorResponse
// @Router       /recipes/feed [get]
func StreamFeed(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	client := make(hub.Client, 16)
	hub.GlobalHub.Subscribe(userID, client)
	metrics.FeedSubscribers.Inc()
	defer func() {
		hub.GlobalHub.Unsubscribe(userID, client)
		metrics.FeedSubscribers.Dec()
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(feedKeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent(hub.EventRecipePublished, string(msg))
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})
}

// publishRecipe notifies the author's subscribers about a new recipe.
func publishRecipe(ctx context.Context, recipe models.Recipe) {
	followers, err := store.PluckIDs[models.Subscription](ctx, database.DB, "user_id", "author_id = ?", recipe.AuthorID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Uint("recipe_id", recipe.ID).Msg("failed to load followers")
		return
	}
	if len(followers) == 0 {
		return
	}

	hub.GlobalHub.Broadcast(followers, hub.Event{
		Type: hub.EventRecipePublished,
		Payload: RecipePublishedPayload{
			Author: newUserResponse(recipe.Author, true),
			Recipe: newRecipeShortResponse(recipe),
		},
	})
}
