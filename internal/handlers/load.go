package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"datalens-backend/internal/database"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/services"
)

type LoadHandler struct {
	dbClient *database.Client
	loader   *services.Loader
	log      *logger.Logger
}

func NewLoadHandler(dbClient *database.Client, loader *services.Loader, log *logger.Logger) *LoadHandler {
	return &LoadHandler{
		dbClient: dbClient,
		loader:   loader,
		log:      log,
	}
}

// LoadProjects godoc
// @Summary     Run the processing pipelines for selected projects
// @Description Runs cleaning and then analysis for every file of each selected project, in order. A project becomes active only when every one of its files passes both stages; per-file failures leave the project inactive without aborting the batch. Returns the user's full project list with the batch results merged in.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.LoadProjectsRequest true "Project IDs to process"
// @Success     200 {object} models.ProjectListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/load [post]
func (h *LoadHandler) LoadProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.LoadProjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	existing, err := h.dbClient.ListProjects(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list projects",
			Message: err.Error(),
		})
		return
	}

	requested := req.ProjectIDs
	if len(requested) == 0 {
		requested = make([]string, len(existing))
		for i, p := range existing {
			requested[i] = p.ID.String()
		}
	}

	batch := make([]models.Project, 0, len(requested))
	for _, raw := range requested {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid project id",
				Message: raw + " is not a valid UUID",
			})
			return
		}

		project, err := h.dbClient.GetProjectWithFiles(projectID, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "project not found",
				Message: raw,
			})
			return
		}
		batch = append(batch, *project)
	}

	merged := h.loader.LoadProjects(c.Request.Context(), existing, batch)

	responses := make([]models.ProjectResponse, len(merged))
	for i, p := range merged {
		responses[i] = projectResponse(p)
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: responses})
}
