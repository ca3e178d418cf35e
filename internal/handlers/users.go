package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"datalens-backend/internal/database"
	"datalens-backend/internal/middleware"
	"datalens-backend/internal/models"
	"datalens-backend/internal/services"
)

type UsersHandler struct {
	sync     *services.UserSync
	dbClient *database.Client
}

func NewUsersHandler(sync *services.UserSync, dbClient *database.Client) *UsersHandler {
	return &UsersHandler{
		sync:     sync,
		dbClient: dbClient,
	}
}

// SyncUser godoc
// @Summary     Sync the authenticated identity into the database
// @Description Ensures a user row exists for the identity in the bearer token. Idempotent: an existing row is returned unchanged.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UserResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /users/sync [post]
func (h *UsersHandler) SyncUser(c *gin.Context) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	email, _ := c.Get(middleware.UserEmailKey)
	name, _ := c.Get(middleware.UserNameKey)
	emailStr, _ := email.(string)
	nameStr, _ := name.(string)

	user, err := h.sync.EnsureUser(userIDStr.(string), nameStr, emailStr)
	if err != nil {
		if errors.Is(err, services.ErrMissingEmail) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "email claim missing",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to sync user",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// GetMe godoc
// @Summary     Get the authenticated user's database record
// @Tags        users
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UserResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /users/me [get]
func (h *UsersHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.dbClient.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "user not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func userResponse(user *models.User) models.UserResponse {
	return models.UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
