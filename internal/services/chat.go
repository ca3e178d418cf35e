package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"datalens-backend/internal/assistant"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/visualization"
)

// FailureReply is the fixed assistant turn recorded when a model call fails.
const FailureReply = "Sorry, there was an error processing your request."

var (
	ErrNoFilesSelected  = errors.New("select at least one file before sending a message")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrNotSavable       = errors.New("turn carries no savable visualization")
	ErrFileNotInProject = errors.New("selected file does not belong to this project")
)

type ModelClient interface {
	CallModel(ctx context.Context, query assistant.QueryRequest) (*assistant.QueryResponse, error)
}

type FileStore interface {
	GetFileByUUID(fileUUID string) (*models.File, error)
}

type VisualizationStore interface {
	CreateVisualization(viz *models.Visualization) (*models.Visualization, error)
}

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Turn is one entry in a chat transcript. Turns are never mutated once
// appended.
type Turn struct {
	ID            string
	Sender        string
	Content       string
	SQLQuery      string
	Visualization visualization.Type
	Payload       json.RawMessage
	Summary       string
	UserQuery     string
}

// ChatSession holds the ordered transcript of a conversation scoped to one
// project and the file uuids currently selected for questioning.
type ChatSession struct {
	projectUUID string
	fileUUIDs   []string
	userID      uuid.UUID

	model ModelClient
	files FileStore
	viz   VisualizationStore
	log   *logger.Logger

	transcript []Turn
}

func NewChatSession(
	projectUUID string,
	fileUUIDs []string,
	userID uuid.UUID,
	model ModelClient,
	files FileStore,
	viz VisualizationStore,
	log *logger.Logger,
) *ChatSession {
	return &ChatSession{
		projectUUID: projectUUID,
		fileUUIDs:   fileUUIDs,
		userID:      userID,
		model:       model,
		files:       files,
		viz:         viz,
		log:         log,
	}
}

// SelectFiles replaces the set of file uuids subsequent questions run against.
func (s *ChatSession) SelectFiles(fileUUIDs []string) {
	s.fileUUIDs = fileUUIDs
}

// Transcript returns a copy of the session's turns in append order.
func (s *ChatSession) Transcript() []Turn {
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// SendMessage appends a user turn, asks the model, and appends the assistant
// turn. With no files selected it rejects before any network call. A model
// failure still produces an assistant turn, carrying the fixed failure reply.
func (s *ChatSession) SendMessage(ctx context.Context, text string) (*Turn, error) {
	if len(s.fileUUIDs) == 0 {
		return nil, ErrNoFilesSelected
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.transcript = append(s.transcript, Turn{
		ID:      uuid.New().String(),
		Sender:  SenderUser,
		Content: text,
	})

	resp, err := s.model.CallModel(ctx, assistant.QueryRequest{
		ProjectUUID: s.projectUUID,
		FileUUIDs:   s.fileUUIDs,
		Question:    text,
	})
	if err != nil {
		s.log.Errorw("model call failed", "project_uuid", s.projectUUID, "error", err)
		failure := Turn{
			ID:      uuid.New().String(),
			Sender:  SenderAssistant,
			Content: FailureReply,
		}
		s.transcript = append(s.transcript, failure)
		return &failure, nil
	}

	reply := Turn{
		ID:            uuid.New().String(),
		Sender:        SenderAssistant,
		Content:       fmt.Sprintf("%s\n\nGenerated SQL Query:\n`%s`", resp.Answer, resp.SQLQuery),
		SQLQuery:      resp.SQLQuery,
		Visualization: visualization.ParseType(resp.Visualization),
		Payload:       resp.FormattedData,
		Summary:       resp.Summary,
		UserQuery:     text,
	}
	s.transcript = append(s.transcript, reply)
	return &reply, nil
}

// SaveVisualization persists a turn's chart to the dashboard: the payload is
// reshaped for storage, the first selected file resolves ownership, and the
// record gets the default top-left placement. Failures never touch the
// transcript.
func (s *ChatSession) SaveVisualization(turn Turn) (*models.Visualization, error) {
	if !turn.Visualization.Savable() || len(turn.Payload) == 0 {
		return nil, ErrNotSavable
	}
	if len(s.fileUUIDs) == 0 {
		return nil, ErrNoFilesSelected
	}

	file, err := s.files.GetFileByUUID(s.fileUUIDs[0])
	if err != nil {
		s.log.Errorw("failed to resolve selected file", "file_uuid", s.fileUUIDs[0], "error", err)
		return nil, err
	}
	if file.ProjectID.String() != s.projectUUID {
		s.log.Warnw("selected file belongs to another project",
			"file_uuid", s.fileUUIDs[0], "project_uuid", s.projectUUID)
		return nil, ErrFileNotInProject
	}

	data, err := visualization.ModelToSaved(turn.Visualization, turn.Payload)
	if err != nil {
		s.log.Errorw("failed to shape visualization payload", "type", turn.Visualization, "error", err)
		return nil, err
	}

	name := turn.UserQuery
	if name == "" {
		name = "Data Visualization"
	}

	viz := &models.Visualization{
		ID:                uuid.New(),
		UserID:            s.userID,
		FileID:            file.ID,
		FileName:          name,
		VisualizationType: string(turn.Visualization),
		Data:              data,
		Layout:            visualization.DefaultLayout("viz-" + uuid.New().String()),
	}
	if turn.Content != "" {
		viz.Description.String = turn.Content
		viz.Description.Valid = true
	}
	if turn.Summary != "" {
		viz.Summary.String = turn.Summary
		viz.Summary.Valid = true
	}

	created, err := s.viz.CreateVisualization(viz)
	if err != nil {
		s.log.Errorw("failed to save visualization", "type", turn.Visualization, "error", err)
		return nil, err
	}

	return created, nil
}
