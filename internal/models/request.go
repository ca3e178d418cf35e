package models

import "encoding/json"

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	// Status must be "active" or "inactive" when present.
	Status *string `json:"status,omitempty"`
}

type LoadProjectsRequest struct {
	// ProjectIDs selects which of the caller's projects to run through the
	// cleaning/analysis pipeline. Empty means every project the user owns.
	ProjectIDs []string `json:"project_ids"`
}

type ChatRequest struct {
	FileUUIDs []string `json:"file_uuids"`
	Question  string   `json:"question" binding:"required"`
}

type SaveVisualizationRequest struct {
	FileUUIDs     []string        `json:"file_uuids"`
	Visualization string          `json:"visualization"`
	Payload       json.RawMessage `json:"formatted_data_for_visualization"`
	Content       string          `json:"content"`
	Summary       string          `json:"summary"`
	UserQuery     string          `json:"user_query"`
}

type CreateVisualizationRequest struct {
	VisualizationType string          `json:"visualization_type" binding:"required"`
	Data              json.RawMessage `json:"data" binding:"required"`
	Layout            json.RawMessage `json:"layout"`
	Description       string          `json:"description"`
	Summary           string          `json:"summary"`
	FileID            string          `json:"file_id" binding:"required"`
	FileName          string          `json:"file_name"`
}

type LayoutUpdate struct {
	ID     string          `json:"id" binding:"required"`
	Layout json.RawMessage `json:"layout" binding:"required"`
}

type UpdateLayoutsRequest struct {
	Updates []LayoutUpdate `json:"updates" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
