package handlers

import (
	"database/sql"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"datalens-backend/internal/database"
	"datalens-backend/internal/events"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/storage"
	"datalens-backend/internal/tabular"
)

const (
	uploadStageIngest   = "ingest"
	uploadStageStorage  = "storage"
	uploadStageDatabase = "database"
)

type UploadHandler struct {
	dbClient      *database.Client
	tabularClient *tabular.Client
	storageClient *storage.Client
	publisher     *events.Publisher
	log           *logger.Logger
}

func NewUploadHandler(dbClient *database.Client, tabularClient *tabular.Client, storageClient *storage.Client, publisher *events.Publisher, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		dbClient:      dbClient,
		tabularClient: tabularClient,
		storageClient: storageClient,
		publisher:     publisher,
		log:           log,
	}
}

// UploadFiles godoc
// @Summary     Upload data files to a project
// @Description Registers each file with the tabular processing service, stores the raw bytes, and records the file against the project. Files are processed independently; per-file failures are reported with the stage that failed. Uploading marks the project inactive until its data is reprocessed.
// @Tags        files
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       files formData file true "Data files (csv, xlsx)"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.UploadResponse
// @Router      /projects/{project_id}/files [post]
func (h *UploadHandler) UploadFiles(c *gin.Context) {
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

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid multipart form",
			Message: err.Error(),
		})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no files provided",
			Message: "the \"files\" form field must contain at least one file",
		})
		return
	}

	// New data invalidates any previous pipeline results for the project.
	if err := h.dbClient.UpdateProjectStatus(projectID, models.ProjectStatusInactive); err != nil {
		h.log.Warnw("failed to mark project inactive before upload", "project_id", projectID, "error", err)
	}

	h.publisher.PublishProjectEvent(projectID, "upload_started",
		events.UploadStartedPayload(projectID, len(fileHeaders)))

	ctx := c.Request.Context()
	response := models.UploadResponse{ProjectID: projectID.String()}

	for _, header := range fileHeaders {
		src, err := header.Open()
		if err != nil {
			response.Errors = append(response.Errors, models.UploadErrorInfo{
				Filename: header.Filename,
				Error:    err.Error(),
				Stage:    uploadStageIngest,
			})
			continue
		}

		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			response.Errors = append(response.Errors, models.UploadErrorInfo{
				Filename: header.Filename,
				Error:    err.Error(),
				Stage:    uploadStageIngest,
			})
			continue
		}

		// Ingest is retried on transient failure; the pipeline stages
		// themselves are never retried.
		var fileUUID string
		err = h.tabularClient.RetryWithBackoff(func() error {
			var uploadErr error
			fileUUID, uploadErr = h.tabularClient.UploadFile(ctx, header.Filename, data)
			return uploadErr
		}, 3)
		if err != nil {
			h.log.Errorw("tabular service rejected file", "filename", header.Filename, "error", err)
			response.Errors = append(response.Errors, models.UploadErrorInfo{
				Filename: header.Filename,
				Error:    err.Error(),
				Stage:    uploadStageIngest,
			})
			continue
		}

		objectPath, _, err := h.storageClient.UploadFile(projectID, fileUUID, header.Filename, data)
		if err != nil {
			h.log.Errorw("failed to store file", "filename", header.Filename, "file_uuid", fileUUID, "error", err)
			response.Errors = append(response.Errors, models.UploadErrorInfo{
				Filename: header.Filename,
				Error:    err.Error(),
				Stage:    uploadStageStorage,
			})
			continue
		}

		file := &models.File{
			ID:        uuid.New(),
			ProjectID: projectID,
			Name:      header.Filename,
			Size:      header.Size,
			FileUUID:  fileUUID,
			FilePath:  sql.NullString{String: objectPath, Valid: true},
		}
		if err := h.dbClient.CreateFile(file); err != nil {
			// The stored object has no metadata row; flag it for cleanup.
			h.log.Errorw("failed to record file, object orphaned in storage",
				"filename", header.Filename, "file_uuid", fileUUID, "object_path", objectPath, "error", err)
			response.Errors = append(response.Errors, models.UploadErrorInfo{
				Filename: header.Filename,
				Error:    err.Error(),
				Stage:    uploadStageDatabase,
			})
			continue
		}

		response.Files = append(response.Files, models.UploadedFileInfo{
			Filename: header.Filename,
			FileUUID: fileUUID,
			Size:     header.Size,
		})
	}

	h.publisher.PublishProjectEvent(projectID, "upload_completed",
		events.UploadCompletedPayload(projectID, len(response.Files)))

	if len(response.Files) == 0 {
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
