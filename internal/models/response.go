package models

import (
	"encoding/json"
	"time"
)

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Files       []FileResponse `json:"files,omitempty"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type FileResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	Description  string    `json:"description,omitempty"`
	FileUUID     string    `json:"file_uuid"`
	FilePath     string    `json:"file_path,omitempty"`
	TableName    string    `json:"table_name,omitempty"`
	ProjectID    string    `json:"project_id"`
	DateUploaded time.Time `json:"date_uploaded"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

type UploadedFileInfo struct {
	Filename string `json:"filename"`
	FileUUID string `json:"file_uuid"`
	Size     int64  `json:"size"`
}

type UploadErrorInfo struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
	Stage    string `json:"stage"`
}

type UploadResponse struct {
	ProjectID string             `json:"project_id"`
	Files     []UploadedFileInfo `json:"files"`
	Errors    []UploadErrorInfo  `json:"errors,omitempty"`
}

type VisualizationResponse struct {
	ID                string          `json:"id"`
	VisualizationType string          `json:"visualization_type"`
	Data              json.RawMessage `json:"data"`
	Layout            json.RawMessage `json:"layout"`
	Description       string          `json:"description,omitempty"`
	Summary           string          `json:"summary,omitempty"`
	FileID            string          `json:"file_id"`
	FileName          string          `json:"file_name"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type VisualizationListResponse struct {
	Visualizations []VisualizationResponse `json:"visualizations"`
}

type ChatMessageResponse struct {
	ID            string          `json:"id"`
	Sender        string          `json:"sender"`
	Content       string          `json:"content"`
	SQLQuery      string          `json:"sql_query,omitempty"`
	Visualization string          `json:"visualization,omitempty"`
	Payload       json.RawMessage `json:"formatted_data_for_visualization,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	UserQuery     string          `json:"user_query,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
