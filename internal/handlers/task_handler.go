package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/cleanteam/internal/errors"
	"github.com/stwalsh4118/cleanteam/internal/middleware"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/services"
)

// TaskHandler handles task requests from staff and operators. Requests with
// an X-Staff-ID header act as that staff member; requests without it act as
// the operator.
type TaskHandler struct {
	service services.TaskService
}

// NewTaskHandler creates a new TaskHandler instance.
func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{
		service: service,
	}
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	AssignedTo *models.StaffIDs `json:"assignedTo"`
	PropertyID string           `json:"propertyId" binding:"required"`
	Date       string           `json:"date" binding:"required,datetime=2006-01-02"`
	GuestName  string           `json:"guestName"`
	Notes      string           `json:"notes"`
}

// UpdateTaskRequest is the body of PATCH /tasks/:taskId.
type UpdateTaskRequest struct {
	AssignedTo *models.StaffIDs `json:"assignedTo"`
	Date       *string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	GuestName  *string          `json:"guestName"`
	Notes      *string          `json:"notes"`
}

// PositionRequest is a device position sample.
type PositionRequest struct {
	CapturedAt *time.Time `json:"capturedAt"`
	Lat        *float64   `json:"lat" binding:"required,min=-90,max=90"`
	Lng        *float64   `json:"lng" binding:"required,min=-180,max=180"`
	Accuracy   float64    `json:"accuracy" binding:"gte=0"`
}

// ActionRequest is the optional body of start, complete and position
// requests. A null position reports that geolocation is unavailable.
type ActionRequest struct {
	Position *PositionRequest `json:"position"`
}

// IssueRequest is the body of POST /tasks/:taskId/issue.
type IssueRequest struct {
	Text string `json:"text" binding:"required"`
}

// PhotoRequest is the body of POST /tasks/:taskId/photos.
type PhotoRequest struct {
	Phase string `json:"phase" binding:"required,oneof=before after"`
	Ref   string `json:"ref" binding:"required"`
}

// TasksResponse is the response of GET /tasks.
type TasksResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Count int            `json:"count"`
}

// ClearResponse is the response of DELETE /tasks.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

// WorkLogsResponse is the response of GET /tasks/:taskId/worklogs.
type WorkLogsResponse struct {
	WorkLogs []services.WorkLogView `json:"workLogs"`
	Count    int                    `json:"count"`
}

// Register mounts the handler's routes on a team group.
func (h *TaskHandler) Register(team *gin.RouterGroup) {
	tasks := team.Group("/tasks")
	{
		tasks.GET("", h.List)
		tasks.POST("", h.Create)
		tasks.DELETE("", h.ClearAll)
		tasks.PATCH("/:taskId", h.Update)
		tasks.POST("/:taskId/start", h.Start)
		tasks.POST("/:taskId/complete", h.Complete)
		tasks.POST("/:taskId/issue", h.ReportIssue)
		tasks.POST("/:taskId/position", h.PushPosition)
		tasks.POST("/:taskId/checklist/:index", h.ToggleChecklist)
		tasks.POST("/:taskId/photos", h.AddPhoto)
		tasks.GET("/:taskId/worklogs", h.WorkLogs)
	}
}

func (p *PositionRequest) toModel(now time.Time) *models.Position {
	if p == nil {
		return nil
	}
	pos := &models.Position{Lat: *p.Lat, Lng: *p.Lng, Accuracy: p.Accuracy, CapturedAt: now}
	if p.CapturedAt != nil {
		pos.CapturedAt = *p.CapturedAt
	}
	return pos
}

// bindAction binds the optional action body and returns its position.
func bindAction(c *gin.Context) (*models.Position, bool) {
	var req ActionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return nil, false
	}
	return req.Position.toModel(time.Now().UTC()), true
}

// List handles GET /tasks.
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.service.List(c.Request.Context(), c.Param(teamParam))
	if err != nil {
		respondServiceError(c, err, "Failed to list tasks")
		return
	}
	c.JSON(http.StatusOK, TasksResponse{Tasks: tasks, Count: len(tasks)})
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid task body")
		return
	}

	in := services.ManualTask{
		PropertyID: req.PropertyID,
		Date:       req.Date,
		GuestName:  req.GuestName,
		Notes:      req.Notes,
	}
	if req.AssignedTo != nil {
		in.AssignedTo = *req.AssignedTo
	}

	task, err := h.service.CreateManual(c.Request.Context(), c.Param(teamParam), in)
	if err != nil {
		respondServiceError(c, err, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update handles PATCH /tasks/:taskId.
func (h *TaskHandler) Update(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid task body")
		return
	}

	task, err := h.service.Update(c.Request.Context(), c.Param(teamParam), c.Param("taskId"), services.TaskEdit{
		AssignedTo: req.AssignedTo,
		Date:       req.Date,
		GuestName:  req.GuestName,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// ClearAll handles DELETE /tasks.
func (h *TaskHandler) ClearAll(c *gin.Context) {
	deleted, err := h.service.ClearAll(c.Request.Context(), c.Param(teamParam))
	if err != nil {
		respondServiceError(c, err, "Failed to clear tasks")
		return
	}
	c.JSON(http.StatusOK, ClearResponse{Deleted: deleted})
}

// Start handles POST /tasks/:taskId/start.
func (h *TaskHandler) Start(c *gin.Context) {
	position, ok := bindAction(c)
	if !ok {
		return
	}
	staffID := middleware.GetStaffID(c)
	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing task start", map[string]interface{}{
			"task_id":      c.Param("taskId"),
			"has_position": position != nil,
		})
	}

	task, err := h.service.Start(c.Request.Context(), c.Param(teamParam), c.Param("taskId"), staffID, position)
	if err != nil {
		respondServiceError(c, err, "Failed to start task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// Complete handles POST /tasks/:taskId/complete. Operator requests may
// complete a task that was never started.
func (h *TaskHandler) Complete(c *gin.Context) {
	position, ok := bindAction(c)
	if !ok {
		return
	}
	staffID := middleware.GetStaffID(c)

	task, err := h.service.Complete(c.Request.Context(), c.Param(teamParam), c.Param("taskId"), staffID, position, staffID == "")
	if err != nil {
		respondServiceError(c, err, "Failed to complete task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// ReportIssue handles POST /tasks/:taskId/issue.
func (h *TaskHandler) ReportIssue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid issue body")
		return
	}

	task, err := h.service.ReportIssue(c.Request.Context(), c.Param(teamParam), c.Param("taskId"), req.Text)
	if err != nil {
		respondServiceError(c, err, "Failed to report issue")
		return
	}
	c.JSON(http.StatusOK, task)
}

// PushPosition handles POST /tasks/:taskId/position. The sample is
// evaluated asynchronously, so the response is 202.
func (h *TaskHandler) PushPosition(c *gin.Context) {
	position, ok := bindAction(c)
	if !ok {
		return
	}

	err := h.service.PushPosition(c.Request.Context(), c.Param(teamParam), c.Param("taskId"), middleware.GetStaffID(c), position)
	if err != nil {
		respondServiceError(c, err, "Failed to record position")
		return
	}
	c.Status(http.StatusAccepted)
}

// ToggleChecklist handles POST /tasks/:taskId/checklist/:index.
func (h *TaskHandler) ToggleChecklist(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		apierrors.BadRequest(c, "Checklist index must be an integer", map[string]interface{}{
			"index": c.Param("index"),
		})
		return
	}

	task, err := h.service.ToggleChecklist(c.Request.Context(), c.Param(teamParam), c.Param("taskId"), index)
	if err != nil {
		respondServiceError(c, err, "Failed to update checklist")
		return
	}
	c.JSON(http.StatusOK, task)
}

// AddPhoto handles POST /tasks/:taskId/photos.
func (h *TaskHandler) AddPhoto(c *gin.Context) {
	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid photo body")
		return
	}

	task, err := h.service.AddPhoto(c.Request.Context(), c.Param(teamParam), c.Param("taskId"), req.Phase, req.Ref)
	if err != nil {
		respondServiceError(c, err, "Failed to add photo")
		return
	}
	c.JSON(http.StatusOK, task)
}

// WorkLogs handles GET /tasks/:taskId/worklogs.
func (h *TaskHandler) WorkLogs(c *gin.Context) {
	logs, err := h.service.WorkLogs(c.Request.Context(), c.Param(teamParam), c.Param("taskId"))
	if err != nil {
		respondServiceError(c, err, "Failed to list work logs")
		return
	}
	c.JSON(http.StatusOK, WorkLogsResponse{WorkLogs: logs, Count: len(logs)})
}
