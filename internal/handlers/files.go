package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/storage"
	"datalens-backend/internal/tabular"
)

// FilesDatabase is the subset of database operations the file endpoints use.
type FilesDatabase interface {
	GetProject(projectID, userID uuid.UUID) (*models.Project, error)
	GetFile(fileID uuid.UUID) (*models.File, error)
	GetFileByUUID(fileUUID string) (*models.File, error)
	ListProjectFiles(projectID uuid.UUID) ([]models.File, error)
	DeleteFile(fileID uuid.UUID) error
}

type FilesHandler struct {
	dbClient      FilesDatabase
	tabularClient *tabular.Client
	storageClient *storage.Client
	log           *logger.Logger
}

func NewFilesHandler(dbClient FilesDatabase, tabularClient *tabular.Client, storageClient *storage.Client, log *logger.Logger) *FilesHandler {
	return &FilesHandler{
		dbClient:      dbClient,
		tabularClient: tabularClient,
		storageClient: storageClient,
		log:           log,
	}
}

// ownedFileByUUID resolves a file by its processing UUID and verifies the
// requesting user owns the project it belongs to.
func (h *FilesHandler) ownedFileByUUID(c *gin.Context) (*models.File, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}

	fileUUID := c.Param("file_uuid")
	if fileUUID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid file_uuid",
			Message: "file_uuid path parameter is required",
		})
		return nil, false
	}

	file, err := h.dbClient.GetFileByUUID(fileUUID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "file not found",
			Message: err.Error(),
		})
		return nil, false
	}

	if _, err := h.dbClient.GetProject(file.ProjectID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "file not found",
			Message: "file does not belong to a project owned by the user",
		})
		return nil, false
	}

	return file, true
}

// GetFiles godoc
// @Summary     List a project's files
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.FilesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/files [get]
func (h *FilesHandler) GetFiles(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}

	if _, err := h.dbClient.GetProject(projectID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "project not found",
			Message: err.Error(),
		})
		return
	}

	files, err := h.dbClient.ListProjectFiles(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list files",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.FileResponse, len(files))
	for i, f := range files {
		responses[i] = fileResponse(f)
	}

	c.JSON(http.StatusOK, models.FilesResponse{Files: responses})
}

// DeleteFile godoc
// @Summary     Delete a file
// @Description Removes the file's metadata row and best-effort deletes its stored object.
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       file_id path string true "File ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project_id}/files/{file_id} [delete]
func (h *FilesHandler) DeleteFile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}

	fileID, ok := pathUUID(c, "file_id")
	if !ok {
		return
	}

	if _, err := h.dbClient.GetProject(projectID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "project not found",
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

	if file.ProjectID != projectID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "file not found",
			Message: "file does not belong to this project",
		})
		return
	}

	if file.FilePath.Valid {
		if err := h.storageClient.DeleteFile(file.FilePath.String); err != nil {
			h.log.Warnw("failed to delete file object from storage", "file_id", fileID, "object_path", file.FilePath.String, "error", err)
		}
	}

	if err := h.dbClient.DeleteFile(fileID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete file",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted successfully"})
}

// DownloadCleaned godoc
// @Summary     Download a file's cleaned data archive
// @Description Proxies the cleaned data archive from the tabular processing service, preserving its filename.
// @Tags        files
// @Produce     application/zip
// @Security    Bearer
// @Param       file_uuid path string true "Processing file UUID"
// @Success     200 {file} binary
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /files/{file_uuid}/cleaned [get]
func (h *FilesHandler) DownloadCleaned(c *gin.Context) {
	file, ok := h.ownedFileByUUID(c)
	if !ok {
		return
	}

	archive, err := h.tabularClient.CleanData(c.Request.Context(), file.FileUUID)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "failed to fetch cleaned data",
			Message: err.Error(),
		})
		return
	}

	serveArchive(c, archive)
}

// DownloadAnalysis godoc
// @Summary     Download a file's analysis archive
// @Description Proxies the data analysis archive from the tabular processing service, preserving its filename.
// @Tags        files
// @Produce     application/zip
// @Security    Bearer
// @Param       file_uuid path string true "Processing file UUID"
// @Success     200 {file} binary
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /files/{file_uuid}/analysis [get]
func (h *FilesHandler) DownloadAnalysis(c *gin.Context) {
	file, ok := h.ownedFileByUUID(c)
	if !ok {
		return
	}

	archive, err := h.tabularClient.AnalyzeData(c.Request.Context(), file.FileUUID)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "failed to fetch data analysis",
			Message: err.Error(),
		})
		return
	}

	serveArchive(c, archive)
}

func serveArchive(c *gin.Context, archive *tabular.Archive) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename))
	c.Data(http.StatusOK, "application/zip", archive.Data)
}
