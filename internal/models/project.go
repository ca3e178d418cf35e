package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ProjectStatusActive   = "active"
	ProjectStatusInactive = "inactive"
)

type Project struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Files is populated only by queries that join the file table.
	Files []File
}

type File struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	Name         string
	Size         int64
	Description  sql.NullString
	FileUUID     string
	FilePath     sql.NullString
	TableName    sql.NullString
	DateUploaded time.Time
}

type Visualization struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	FileID            uuid.UUID
	FileName          string
	VisualizationType string
	Data              json.RawMessage
	Layout            json.RawMessage
	Description       sql.NullString
	Summary           sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
