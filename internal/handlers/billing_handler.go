package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cleanteam/internal/billing"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/services"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// BillingHandler handles billing reports and staff billing profiles.
type BillingHandler struct {
	service services.BillingService
}

// NewBillingHandler creates a new BillingHandler instance.
func NewBillingHandler(service services.BillingService) *BillingHandler {
	return &BillingHandler{
		service: service,
	}
}

// BillingQuery represents the query parameters of the billing endpoints.
type BillingQuery struct {
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	StaffID  string `form:"staffId"`
	Property string `form:"property"`
}

// StaffRequest is the body of PUT /staff/:staffId.
type StaffRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role"`
}

// BillingProfileRequest is the body of PUT /staff/:staffId/billing.
type BillingProfileRequest struct {
	Mode       string  `json:"billingMode" binding:"omitempty,oneof=fixed hourly"`
	FixedRate  float64 `json:"fixedRate" binding:"gte=0"`
	HourlyRate float64 `json:"hourlyRate" binding:"gte=0"`
}

// StaffResponse is the response of GET /staff.
type StaffResponse struct {
	Staff []*models.StaffMember `json:"staff"`
	Count int                   `json:"count"`
}

// Register mounts the handler's routes on a team group.
func (h *BillingHandler) Register(team *gin.RouterGroup) {
	team.GET("/billing", h.Report)
	team.GET("/billing/export.csv", h.ExportCSV)
	team.GET("/billing/export.xlsx", h.ExportXLSX)

	team.GET("/staff", h.ListStaff)
	team.PUT("/staff/:staffId", h.SaveStaff)
	team.GET("/staff/:staffId/billing", h.GetProfile)
	team.PUT("/staff/:staffId/billing", h.UpdateProfile)
}

func bindFilter(c *gin.Context) (billing.Filter, bool) {
	var q BillingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return billing.Filter{}, false
	}
	return billing.Filter{From: q.From, To: q.To, StaffID: q.StaffID, Property: q.Property}, true
}

// Report handles GET /billing.
func (h *BillingHandler) Report(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	report, err := h.service.Report(c.Request.Context(), c.Param(teamParam), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to build billing report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportCSV handles GET /billing/export.csv.
func (h *BillingHandler) ExportCSV(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	data, err := h.service.ExportCSV(c.Request.Context(), c.Param(teamParam), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to export billing report")
		return
	}
	c.Header("Content-Disposition", attachment("csv", filter))
	c.Data(http.StatusOK, csvContentType, data)
}

// ExportXLSX handles GET /billing/export.xlsx.
func (h *BillingHandler) ExportXLSX(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	data, err := h.service.ExportXLSX(c.Request.Context(), c.Param(teamParam), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to export billing report")
		return
	}
	c.Header("Content-Disposition", attachment("xlsx", filter))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// attachment names the export after its date bounds.
func attachment(ext string, filter billing.Filter) string {
	from, to := filter.From, filter.To
	if from == "" {
		from = "start"
	}
	if to == "" {
		to = "today"
	}
	return fmt.Sprintf(`attachment; filename="billing_%s_%s.%s"`, from, to, ext)
}

// ListStaff handles GET /staff.
func (h *BillingHandler) ListStaff(c *gin.Context) {
	staff, err := h.service.ListStaff(c.Request.Context(), c.Param(teamParam))
	if err != nil {
		respondServiceError(c, err, "Failed to list staff")
		return
	}
	c.JSON(http.StatusOK, StaffResponse{Staff: staff, Count: len(staff)})
}

// SaveStaff handles PUT /staff/:staffId.
func (h *BillingHandler) SaveStaff(c *gin.Context) {
	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid staff body")
		return
	}

	member, err := h.service.SaveStaff(c.Request.Context(), c.Param(teamParam), c.Param("staffId"), req.Name, req.Role)
	if err != nil {
		respondServiceError(c, err, "Failed to save staff member")
		return
	}
	c.JSON(http.StatusOK, member)
}

// GetProfile handles GET /staff/:staffId/billing.
func (h *BillingHandler) GetProfile(c *gin.Context) {
	member, err := h.service.GetProfile(c.Request.Context(), c.Param(teamParam), c.Param("staffId"))
	if err != nil {
		respondServiceError(c, err, "Failed to load billing profile")
		return
	}
	c.JSON(http.StatusOK, member.Billing)
}

// UpdateProfile handles PUT /staff/:staffId/billing.
func (h *BillingHandler) UpdateProfile(c *gin.Context) {
	var req BillingProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid billing profile body")
		return
	}

	member, err := h.service.UpdateProfile(c.Request.Context(), c.Param(teamParam), c.Param("staffId"), models.BillingProfile{
		Mode:       models.BillingMode(req.Mode),
		FixedRate:  req.FixedRate,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update billing profile")
		return
	}
	c.JSON(http.StatusOK, member.Billing)
}
