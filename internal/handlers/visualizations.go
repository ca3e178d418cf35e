package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"datalens-backend/internal/database"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/visualization"
)

type VisualizationsHandler struct {
	dbClient *database.Client
	log      *logger.Logger
}

func NewVisualizationsHandler(dbClient *database.Client, log *logger.Logger) *VisualizationsHandler {
	return &VisualizationsHandler{
		dbClient: dbClient,
		log:      log,
	}
}

// ListVisualizations godoc
// @Summary     List the user's saved visualizations
// @Tags        visualizations
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.VisualizationListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /visualizations [get]
func (h *VisualizationsHandler) ListVisualizations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	visualizations, err := h.dbClient.ListVisualizations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list visualizations",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.VisualizationResponse, len(visualizations))
	for i, v := range visualizations {
		responses[i] = visualizationResponse(v)
	}

	c.JSON(http.StatusOK, models.VisualizationListResponse{Visualizations: responses})
}

// GetVisualization godoc
// @Summary     Get a saved visualization
// @Tags        visualizations
// @Produce     json
// @Security    Bearer
// @Param       visualization_id path string true "Visualization ID (UUID)"
// @Success     200 {object} models.VisualizationResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /visualizations/{visualization_id} [get]
func (h *VisualizationsHandler) GetVisualization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	vizID, ok := pathUUID(c, "visualization_id")
	if !ok {
		return
	}

	viz, err := h.dbClient.GetVisualization(vizID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "visualization not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, visualizationResponse(*viz))
}

// CreateVisualization godoc
// @Summary     Create a visualization directly
// @Description Saves a visualization against one of the user's files without going through chat. The type must be one of the savable chart types; a missing layout gets the default top-left placement.
// @Tags        visualizations
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateVisualizationRequest true "Visualization fields"
// @Success     200 {object} models.VisualizationResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /visualizations [post]
func (h *VisualizationsHandler) CreateVisualization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateVisualizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	vizType := visualization.ParseType(req.VisualizationType)
	if !vizType.Savable() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid visualization type",
			Message: req.VisualizationType + " cannot be saved",
		})
		return
	}

	fileID, err := uuid.Parse(req.FileID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid file_id",
			Message: err.Error(),
		})
		return
	}

	file, err := h.dbClient.GetFile(fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "file not found",
			Message: err.Error(),
		})
		return
	}
	if _, err := h.dbClient.GetProject(file.ProjectID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "file not found",
			Message: "file does not belong to a project owned by the user",
		})
		return
	}

	viz := &models.Visualization{
		ID:                uuid.New(),
		UserID:            userID,
		FileID:            fileID,
		FileName:          req.FileName,
		VisualizationType: string(vizType),
		Data:              req.Data,
		Layout:            req.Layout,
	}
	if viz.FileName == "" {
		viz.FileName = file.Name
	}
	if len(viz.Layout) == 0 {
		viz.Layout = visualization.DefaultLayout("viz-" + viz.ID.String())
	}
	if req.Description != "" {
		viz.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.Summary != "" {
		viz.Summary = sql.NullString{String: req.Summary, Valid: true}
	}

	created, err := h.dbClient.CreateVisualization(viz)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create visualization",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, visualizationResponse(*created))
}

// UpdateLayouts godoc
// @Summary     Update dashboard layouts in bulk
// @Description Persists the grid placement of multiple visualizations after the user rearranges the dashboard. Updates are applied independently; an unknown id fails that update without aborting the rest.
// @Tags        visualizations
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateLayoutsRequest true "Layout updates"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /visualizations/layouts [patch]
func (h *VisualizationsHandler) UpdateLayouts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpdateLayoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	updated := 0
	for _, update := range req.Updates {
		vizID, err := uuid.Parse(update.ID)
		if err != nil {
			h.log.Warnw("skipping layout update with invalid id", "id", update.ID)
			continue
		}
		if err := h.dbClient.UpdateVisualizationLayout(vizID, userID, update.Layout); err != nil {
			h.log.Warnw("failed to update visualization layout", "visualization_id", vizID, "error", err)
			continue
		}
		updated++
	}

	c.JSON(http.StatusOK, gin.H{"message": "layouts updated", "updated": updated})
}

// DeleteVisualization godoc
// @Summary     Delete a saved visualization
// @Tags        visualizations
// @Produce     json
// @Security    Bearer
// @Param       visualization_id path string true "Visualization ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /visualizations/{visualization_id} [delete]
func (h *VisualizationsHandler) DeleteVisualization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	vizID, ok := pathUUID(c, "visualization_id")
	if !ok {
		return
	}

	if err := h.dbClient.DeleteVisualization(vizID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "visualization not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "visualization deleted successfully"})
}
