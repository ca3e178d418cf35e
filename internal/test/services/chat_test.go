package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens-backend/internal/assistant"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/services"
	"datalens-backend/internal/visualization"
)

type fakeModel struct {
	calls    int
	lastReq  assistant.QueryRequest
	response *assistant.QueryResponse
	err      error
}

func (f *fakeModel) CallModel(_ context.Context, query assistant.QueryRequest) (*assistant.QueryResponse, error) {
	f.calls++
	f.lastReq = query
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeFileStore struct {
	files map[string]*models.File
}

func (f *fakeFileStore) GetFileByUUID(fileUUID string) (*models.File, error) {
	file, ok := f.files[fileUUID]
	if !ok {
		return nil, assert.AnError
	}
	return file, nil
}

type fakeVizStore struct {
	created []*models.Visualization
	err     error
}

func (f *fakeVizStore) CreateVisualization(viz *models.Visualization) (*models.Visualization, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, viz)
	return viz, nil
}

func newSession(model *fakeModel, files *fakeFileStore, viz *fakeVizStore, fileUUIDs ...string) *services.ChatSession {
	return services.NewChatSession(
		uuid.New().String(),
		fileUUIDs,
		uuid.New(),
		model,
		files,
		viz,
		logger.NewNop(),
	)
}

func TestChatSession_NoFilesSelected(t *testing.T) {
	model := &fakeModel{}
	session := newSession(model, &fakeFileStore{}, &fakeVizStore{})

	_, err := session.SendMessage(context.Background(), "what is the total revenue?")

	assert.ErrorIs(t, err, services.ErrNoFilesSelected)
	// Rejected before any network call; transcript stays untouched.
	assert.Zero(t, model.calls)
	assert.Empty(t, session.Transcript())
}

func TestChatSession_EmptyMessage(t *testing.T) {
	model := &fakeModel{}
	session := newSession(model, &fakeFileStore{}, &fakeVizStore{}, "f1")

	_, err := session.SendMessage(context.Background(), "   ")

	assert.ErrorIs(t, err, services.ErrEmptyMessage)
	assert.Zero(t, model.calls)
}

func TestChatSession_SendMessage(t *testing.T) {
	model := &fakeModel{
		response: &assistant.QueryResponse{
			Answer:        "Total revenue is 42.",
			SQLQuery:      "SELECT SUM(revenue) FROM sales",
			Visualization: "bar",
			FormattedData: json.RawMessage(`{"labels": ["A"], "values": [{"data": [42]}]}`),
			Summary:       "One bar.",
		},
	}
	session := newSession(model, &fakeFileStore{}, &fakeVizStore{}, "f1", "f2")

	reply, err := session.SendMessage(context.Background(), "what is the total revenue?")
	require.NoError(t, err)

	assert.Equal(t, []string{"f1", "f2"}, model.lastReq.FileUUIDs)
	assert.Equal(t, "what is the total revenue?", model.lastReq.Question)

	assert.Equal(t, services.SenderAssistant, reply.Sender)
	assert.Equal(t, "Total revenue is 42.\n\nGenerated SQL Query:\n`SELECT SUM(revenue) FROM sales`", reply.Content)
	assert.Equal(t, visualization.TypeBar, reply.Visualization)
	assert.Equal(t, "what is the total revenue?", reply.UserQuery)

	transcript := session.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, services.SenderUser, transcript[0].Sender)
	assert.Equal(t, services.SenderAssistant, transcript[1].Sender)
}

func TestChatSession_ModelFailureProducesApologyTurn(t *testing.T) {
	model := &fakeModel{err: assert.AnError}
	session := newSession(model, &fakeFileStore{}, &fakeVizStore{}, "f1")

	reply, err := session.SendMessage(context.Background(), "why did sales drop?")
	require.NoError(t, err)

	assert.Equal(t, services.SenderAssistant, reply.Sender)
	assert.Equal(t, services.FailureReply, reply.Content)
	assert.Equal(t, visualization.Type(""), reply.Visualization)

	// The user's turn and the apology both stay in the transcript.
	transcript := session.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, services.FailureReply, transcript[1].Content)
}

func TestChatSession_SaveVisualization(t *testing.T) {
	projectID := uuid.New()
	fileID := uuid.New()
	files := &fakeFileStore{files: map[string]*models.File{
		"f1": {ID: fileID, ProjectID: projectID, Name: "sales.csv", FileUUID: "f1"},
	}}
	vizStore := &fakeVizStore{}
	session := services.NewChatSession(projectID.String(), []string{"f1"}, uuid.New(),
		&fakeModel{}, files, vizStore, logger.NewNop())

	viz, err := session.SaveVisualization(services.Turn{
		Sender:        services.SenderAssistant,
		Content:       "Here is the chart.",
		Visualization: visualization.TypeBar,
		Payload:       json.RawMessage(`{"labels": ["A", "B"], "values": [{"data": [3, 7]}]}`),
		Summary:       "Two bars.",
		UserQuery:     "revenue by region",
	})
	require.NoError(t, err)
	require.Len(t, vizStore.created, 1)

	assert.Equal(t, fileID, viz.FileID)
	assert.Equal(t, "revenue by region", viz.FileName)
	assert.Equal(t, string(visualization.TypeBar), viz.VisualizationType)
	assert.Equal(t, "Two bars.", viz.Summary.String)

	var data []visualization.Datum
	require.NoError(t, json.Unmarshal(viz.Data, &data))
	assert.Equal(t, []visualization.Datum{
		{Label: "A", Value: 3},
		{Label: "B", Value: 7},
	}, data)

	var layout map[string]interface{}
	require.NoError(t, json.Unmarshal(viz.Layout, &layout))
	assert.Equal(t, float64(0), layout["x"])
	assert.Equal(t, float64(6), layout["w"])
}

func TestChatSession_SaveVisualization_ForeignFile(t *testing.T) {
	sessionProject := uuid.New()
	foreignProject := uuid.New()
	files := &fakeFileStore{files: map[string]*models.File{
		"f1": {ID: uuid.New(), ProjectID: foreignProject, Name: "other.csv", FileUUID: "f1"},
	}}
	vizStore := &fakeVizStore{}
	session := services.NewChatSession(sessionProject.String(), []string{"f1"}, uuid.New(),
		&fakeModel{}, files, vizStore, logger.NewNop())

	_, err := session.SaveVisualization(services.Turn{
		Sender:        services.SenderAssistant,
		Visualization: visualization.TypeBar,
		Payload:       json.RawMessage(`{"labels": ["A"], "values": [{"data": [1]}]}`),
	})

	// A file from another project must never be persisted against this session.
	assert.ErrorIs(t, err, services.ErrFileNotInProject)
	assert.Empty(t, vizStore.created)
}

func TestChatSession_SaveVisualization_NotSavable(t *testing.T) {
	session := newSession(&fakeModel{}, &fakeFileStore{}, &fakeVizStore{}, "f1")

	_, err := session.SaveVisualization(services.Turn{
		Visualization: visualization.TypeGlobe,
		Payload:       json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, services.ErrNotSavable)

	_, err = session.SaveVisualization(services.Turn{
		Visualization: visualization.TypeBar,
	})
	assert.ErrorIs(t, err, services.ErrNotSavable)
}
