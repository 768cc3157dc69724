package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitematch/bitematch/internal/database"
	"github.com/bitematch/bitematch/internal/models"
	"github.com/bitematch/bitematch/internal/services"
)

// APIHandler handles all API requests.
type APIHandler struct {
	recommender *services.RecommendationService
	store       *database.Store
	log         *zap.SugaredLogger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(recommender *services.RecommendationService, store *database.Store, log *zap.SugaredLogger) *APIHandler {
	return &APIHandler{
		recommender: recommender,
		store:       store,
		log:         log,
	}
}

// SetupRoutes configures all API routes.
func (h *APIHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/recommend", h.Recommend)
		api.GET("/matches", h.Matches)
		api.POST("/preferences", h.SavePreference)
		api.GET("/restaurants", h.Restaurants)
		api.GET("/food-types", h.FoodTypes)
		api.GET("/protein-types", h.ProteinTypes)
		api.GET("/test-cards", h.TestCards)
		api.GET("/health", h.Health)
	}
}

// Recommend handles cold-start recommendation requests. The restaurant
// field accepts either a single name or an array of names.
func (h *APIHandler) Recommend(c *gin.Context) {
	var req struct {
		Hunger      string          `json:"hunger"`
		Health      string          `json:"health"`
		Restaurant  json.RawMessage `json:"restaurant"`
		FoodType    string          `json:"food_type"`
		ProteinType string          `json:"protein_type"`
		Count       int             `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	criteria := models.Criteria{
		Hunger:      defaultString(req.Hunger, "medium"),
		Health:      defaultString(req.Health, "medium"),
		Restaurant:  "any",
		FoodType:    defaultString(req.FoodType, "any"),
		ProteinType: defaultString(req.ProteinType, "any"),
		Count:       req.Count,
	}
	if criteria.Count == 0 {
		criteria.Count = 5
	}
	if len(req.Restaurant) > 0 {
		var single string
		var multiple []string
		switch {
		case json.Unmarshal(req.Restaurant, &single) == nil:
			criteria.Restaurant = defaultString(single, "any")
		case json.Unmarshal(req.Restaurant, &multiple) == nil:
			criteria.Restaurants = multiple
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "restaurant must be a string or an array of strings"})
			return
		}
	}

	result, err := h.recommender.Recommend(criteria)
	if err != nil {
		var callerErr *services.CallerError
		if errors.As(err, &callerErr) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": callerErr.Error()})
			return
		}
		h.log.Errorw("recommendation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to get recommendations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"recommendations": result.Items,
	})
}

// Matches handles personalized match requests against the full
// preference log.
func (h *APIHandler) Matches(c *gin.Context) {
	prefs, err := h.store.ListPreferences(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to load preference log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load preferences"})
		return
	}

	result, err := h.recommender.Match(prefs)
	if err != nil {
		h.log.Errorw("matching failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to compute matches"})
		return
	}

	resp := gin.H{
		"success":  true,
		"matches":  result.Matches,
		"degraded": result.Degraded,
	}
	if result.Degraded {
		resp["message"] = "No preferences recorded yet. Showing healthy options."
	} else if len(result.Matches) == 0 {
		resp["message"] = "You have already rated all available items!"
	}
	c.JSON(http.StatusOK, resp)
}

// SavePreference records one like/dislike event.
func (h *APIHandler) SavePreference(c *gin.Context) {
	var req struct {
		FoodID  int  `json:"food_id"`
		IsLiked bool `json:"is_liked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if req.FoodID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing food_id"})
		return
	}

	if err := h.store.SavePreference(c.Request.Context(), req.FoodID, req.IsLiked); err != nil {
		h.log.Errorw("failed to save preference", "food_id", req.FoodID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save preference"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Restaurants lists every restaurant in the catalog.
func (h *APIHandler) Restaurants(c *gin.Context) {
	restaurants, err := h.store.DistinctRestaurants(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to list restaurants", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list restaurants"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "restaurants": restaurants})
}

// FoodTypes lists the labeled food types in the catalog.
func (h *APIHandler) FoodTypes(c *gin.Context) {
	types, err := h.store.DistinctFoodTypes(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to list food types", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list food types"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "food_types": types})
}

// ProteinTypes lists the labeled protein types in the catalog.
func (h *APIHandler) ProteinTypes(c *gin.Context) {
	types, err := h.store.DistinctProteinTypes(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to list protein types", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list protein types"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "protein_types": types})
}

// TestCards serves a balanced random selection of items for the rating UI.
func (h *APIHandler) TestCards(c *gin.Context) {
	cards, err := h.store.TestCards(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to select test cards", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to select test cards"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cards": cards})
}

// Health reports service and store health.
func (h *APIHandler) Health(c *gin.Context) {
	if err := h.store.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
