package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"datalens-backend/internal/middleware"
	"datalens-backend/internal/models"
)

// currentUserID reads the authenticated user id the auth middleware stored.
// On failure it writes the error response and returns ok=false.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}

	return userID, true
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func fileResponse(file models.File) models.FileResponse {
	resp := models.FileResponse{
		ID:           file.ID.String(),
		Name:         file.Name,
		Size:         file.Size,
		FileUUID:     file.FileUUID,
		ProjectID:    file.ProjectID.String(),
		DateUploaded: file.DateUploaded,
	}
	if file.Description.Valid {
		resp.Description = file.Description.String
	}
	if file.FilePath.Valid {
		resp.FilePath = file.FilePath.String
	}
	if file.TableName.Valid {
		resp.TableName = file.TableName.String
	}
	return resp
}

func projectResponse(project models.Project) models.ProjectResponse {
	resp := models.ProjectResponse{
		ID:          project.ID.String(),
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	for _, file := range project.Files {
		resp.Files = append(resp.Files, fileResponse(file))
	}
	return resp
}

func visualizationResponse(viz models.Visualization) models.VisualizationResponse {
	resp := models.VisualizationResponse{
		ID:                viz.ID.String(),
		VisualizationType: viz.VisualizationType,
		Data:              viz.Data,
		Layout:            viz.Layout,
		FileID:            viz.FileID.String(),
		FileName:          viz.FileName,
		CreatedAt:         viz.CreatedAt,
		UpdatedAt:         viz.UpdatedAt,
	}
	if viz.Description.Valid {
		resp.Description = viz.Description.String
	}
	if viz.Summary.Valid {
		resp.Summary = viz.Summary.String
	}
	return resp
}
