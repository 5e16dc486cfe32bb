package handler

import (
	"net/http"
	"strings"

	"foodgram/backend/internal/database"
	"foodgram/backend/internal/models"
	"foodgram/backend/internal/store"

	"github.com/gin-gonic/gin"
)

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func newIngredientResponse(ing models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
}

// GetIngredients godoc
// @Summary      Search ingredients
// @Description  Lists ingredients, optionally those whose name starts with the given text (case-insensitive).
// @Tags         ingredients
// @Produce      json
// @Param        name query    string  false  "Name prefix"
// @Success      200  {array}  IngredientResponse
// @Router       /ingredients [get]
func GetIngredients(c *gin.Context) {
	query := database.DB.WithContext(c.Request.Context()).Order("name").Order("measurement_unit")
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(name))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		respondError(c, err)
		return
	}

	response := make([]IngredientResponse, 0, len(ingredients))
	for _, ing := range ingredients {
		response = append(response, newIngredientResponse(ing))
	}
	c.JSON(http.StatusOK, response)
}

// GetIngredientByID godoc
// @Summary      Get an ingredient
// @Tags         ingredients
// @Produce      json
// @Param        id   path      int  true  "Ingredient ID"
// @Success      200  {object}  IngredientResponse
// @Failure      404  {object}  ErrorResponse "Ingredient not found"
// @Router       /ingredients/{id} [get]
func GetIngredientByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ing, err := store.FindByID[models.Ingredient](c.Request.Context(), database.DB, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}
	c.JSON(http.StatusOK, newIngredientResponse(*ing))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
