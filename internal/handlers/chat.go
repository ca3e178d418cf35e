package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"datalens-backend/internal/assistant"
	"datalens-backend/internal/database"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/services"
	"datalens-backend/internal/visualization"
)

type ChatHandler struct {
	dbClient        *database.Client
	assistantClient *assistant.Client
	log             *logger.Logger
}

func NewChatHandler(dbClient *database.Client, assistantClient *assistant.Client, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		dbClient:        dbClient,
		assistantClient: assistantClient,
		log:             log,
	}
}

// SendMessage godoc
// @Summary     Ask a question about a project's data
// @Description Sends the question and the selected file uuids to the AI backend. A model failure still returns 200 with a fixed apology reply so the conversation can continue.
// @Tags        chat
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.ChatRequest true "Question and selected files"
// @Success     200 {object} models.ChatMessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/chat [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
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

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session := services.NewChatSession(projectID.String(), req.FileUUIDs, userID,
		h.assistantClient, h.dbClient, h.dbClient, h.log)

	turn, err := session.SendMessage(c.Request.Context(), req.Question)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "cannot send message",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, turnResponse(*turn))
}

// SaveVisualization godoc
// @Summary     Save a chat-produced visualization to the dashboard
// @Description Reshapes the model's visualization payload for storage and records it against the first selected file. Only bar, horizontal_bar, pie, line, and scatter charts can be saved.
// @Tags        chat
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.SaveVisualizationRequest true "Turn fields to persist"
// @Success     200 {object} models.VisualizationResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project_id}/chat/save [post]
func (h *ChatHandler) SaveVisualization(c *gin.Context) {
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

	var req models.SaveVisualizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session := services.NewChatSession(projectID.String(), req.FileUUIDs, userID,
		h.assistantClient, h.dbClient, h.dbClient, h.log)

	viz, err := session.SaveVisualization(services.Turn{
		Sender:        services.SenderAssistant,
		Content:       req.Content,
		Visualization: visualization.ParseType(req.Visualization),
		Payload:       req.Payload,
		Summary:       req.Summary,
		UserQuery:     req.UserQuery,
	})
	if err != nil {
		if errors.Is(err, services.ErrFileNotInProject) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "file not found",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, services.ErrNotSavable) || errors.Is(err, services.ErrNoFilesSelected) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "cannot save visualization",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save visualization",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, visualizationResponse(*viz))
}

func turnResponse(turn services.Turn) models.ChatMessageResponse {
	resp := models.ChatMessageResponse{
		ID:        turn.ID,
		Sender:    turn.Sender,
		Content:   turn.Content,
		SQLQuery:  turn.SQLQuery,
		Payload:   turn.Payload,
		Summary:   turn.Summary,
		UserQuery: turn.UserQuery,
	}
	if turn.Visualization != visualization.TypeNone {
		resp.Visualization = string(turn.Visualization)
	}
	return resp
}
