package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cleanteam/internal/middleware"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/services"
)

// PropertyHandler handles property requests.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		service: service,
	}
}

// PropertyRequest is the body of PUT /properties/:propertyId. It replaces
// the crew, checklist and coordinates; null coordinates clear them.
type PropertyRequest struct {
	Coordinates  *models.Coordinates `json:"coordinates"`
	DefaultStaff models.StaffIDs     `json:"defaultStaff"`
	Checklist    []string            `json:"checklist"`
}

// PropertiesResponse is the response of GET /properties.
type PropertiesResponse struct {
	Properties []*models.Property `json:"properties"`
	Count      int                `json:"count"`
}

// Register mounts the handler's routes on a team group.
func (h *PropertyHandler) Register(team *gin.RouterGroup) {
	team.GET("/properties", h.List)
	team.PUT("/properties/:propertyId", h.Update)
}

// List handles GET /properties.
func (h *PropertyHandler) List(c *gin.Context) {
	props, err := h.service.List(c.Request.Context(), c.Param(teamParam))
	if err != nil {
		respondServiceError(c, err, "Failed to list properties")
		return
	}
	c.JSON(http.StatusOK, PropertiesResponse{Properties: props, Count: len(props)})
}

// Update handles PUT /properties/:propertyId.
func (h *PropertyHandler) Update(c *gin.Context) {
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid property body")
		return
	}

	propertyID := c.Param("propertyId")
	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing property update", map[string]interface{}{
			"property_id": propertyID,
			"crew":        req.DefaultStaff.Len(),
		})
	}

	result, err := h.service.Update(c.Request.Context(), c.Param(teamParam), propertyID, services.PropertyEdit{
		Coordinates:  req.Coordinates,
		DefaultStaff: req.DefaultStaff,
		Checklist:    req.Checklist,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update property")
		return
	}
	c.JSON(http.StatusOK, result)
}
