package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/services"
	"datalens-backend/internal/tabular"
)

// fakePipeline records stage invocations in call order and fails the stages
// named in its failure sets.
type fakePipeline struct {
	calls       []string
	failClean   map[string]bool
	failAnalyze map[string]bool
}

func (f *fakePipeline) CleanData(_ context.Context, fileUUID string) (*tabular.Archive, error) {
	f.calls = append(f.calls, "clean:"+fileUUID)
	if f.failClean[fileUUID] {
		return nil, assert.AnError
	}
	return &tabular.Archive{Filename: fileUUID + ".zip"}, nil
}

func (f *fakePipeline) AnalyzeData(_ context.Context, fileUUID string) (*tabular.Archive, error) {
	f.calls = append(f.calls, "analyze:"+fileUUID)
	if f.failAnalyze[fileUUID] {
		return nil, assert.AnError
	}
	return &tabular.Archive{Filename: fileUUID + "_analysis.zip"}, nil
}

type fakeStatusStore struct {
	updates map[uuid.UUID]string
	err     error
}

func (f *fakeStatusStore) UpdateProjectStatus(projectID uuid.UUID, status string) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[uuid.UUID]string)
	}
	f.updates[projectID] = status
	return nil
}

func projectWithFiles(fileUUIDs ...string) models.Project {
	project := models.Project{
		ID:     uuid.New(),
		Status: models.ProjectStatusInactive,
	}
	for _, fu := range fileUUIDs {
		project.Files = append(project.Files, models.File{
			ID:        uuid.New(),
			ProjectID: project.ID,
			FileUUID:  fu,
		})
	}
	return project
}

func TestLoader_AllFilesPass(t *testing.T) {
	pipeline := &fakePipeline{}
	store := &fakeStatusStore{}
	loader := services.NewLoader(pipeline, store, nil, logger.NewNop())

	project := projectWithFiles("f1", "f2")
	merged := loader.LoadProjects(context.Background(), nil, []models.Project{project})

	// Cleaning always completes before analysis starts for each file.
	assert.Equal(t, []string{"clean:f1", "analyze:f1", "clean:f2", "analyze:f2"}, pipeline.calls)

	require.Len(t, merged, 1)
	assert.Equal(t, models.ProjectStatusActive, merged[0].Status)
	assert.Equal(t, models.ProjectStatusActive, store.updates[project.ID])
}

func TestLoader_CleaningFailureSkipsAnalysis(t *testing.T) {
	pipeline := &fakePipeline{failClean: map[string]bool{"f1": true}}
	store := &fakeStatusStore{}
	loader := services.NewLoader(pipeline, store, nil, logger.NewNop())

	project := projectWithFiles("f1", "f2")
	merged := loader.LoadProjects(context.Background(), nil, []models.Project{project})

	// f1's analysis is never attempted; f2 still runs both stages.
	assert.Equal(t, []string{"clean:f1", "clean:f2", "analyze:f2"}, pipeline.calls)

	require.Len(t, merged, 1)
	assert.Equal(t, models.ProjectStatusInactive, merged[0].Status)
	assert.Empty(t, store.updates)
}

func TestLoader_AnalysisFailureKeepsProjectInactive(t *testing.T) {
	pipeline := &fakePipeline{failAnalyze: map[string]bool{"f2": true}}
	store := &fakeStatusStore{}
	loader := services.NewLoader(pipeline, store, nil, logger.NewNop())

	project := projectWithFiles("f1", "f2")
	merged := loader.LoadProjects(context.Background(), nil, []models.Project{project})

	require.Len(t, merged, 1)
	assert.Equal(t, models.ProjectStatusInactive, merged[0].Status)
	assert.Empty(t, store.updates)
}

func TestLoader_FailingProjectDoesNotAbortBatch(t *testing.T) {
	pipeline := &fakePipeline{failClean: map[string]bool{"bad": true}}
	store := &fakeStatusStore{}
	loader := services.NewLoader(pipeline, store, nil, logger.NewNop())

	failing := projectWithFiles("bad")
	healthy := projectWithFiles("good")
	merged := loader.LoadProjects(context.Background(), nil, []models.Project{failing, healthy})

	require.Len(t, merged, 2)
	assert.Equal(t, models.ProjectStatusInactive, merged[0].Status)
	assert.Equal(t, models.ProjectStatusActive, merged[1].Status)
	assert.Equal(t, models.ProjectStatusActive, store.updates[healthy.ID])
	assert.NotContains(t, store.updates, failing.ID)
}

func TestLoader_PersistFailureKeepsInMemoryStatus(t *testing.T) {
	pipeline := &fakePipeline{}
	store := &fakeStatusStore{err: assert.AnError}
	loader := services.NewLoader(pipeline, store, nil, logger.NewNop())

	project := projectWithFiles("f1")
	merged := loader.LoadProjects(context.Background(), nil, []models.Project{project})

	// Activation is only reported once it is durable.
	require.Len(t, merged, 1)
	assert.Equal(t, models.ProjectStatusInactive, merged[0].Status)
}

func TestLoader_EmptyProjectActivates(t *testing.T) {
	pipeline := &fakePipeline{}
	store := &fakeStatusStore{}
	loader := services.NewLoader(pipeline, store, nil, logger.NewNop())

	project := projectWithFiles()
	merged := loader.LoadProjects(context.Background(), nil, []models.Project{project})

	assert.Empty(t, pipeline.calls)
	require.Len(t, merged, 1)
	assert.Equal(t, models.ProjectStatusActive, merged[0].Status)
}

func TestMergeProjects_ReplacesById(t *testing.T) {
	shared := uuid.New()
	existing := []models.Project{
		{ID: shared, Name: "old name", Status: models.ProjectStatusInactive},
		{ID: uuid.New(), Name: "untouched", Status: models.ProjectStatusActive},
	}
	incoming := []models.Project{
		{ID: shared, Name: "new name", Status: models.ProjectStatusActive},
	}

	merged := services.MergeProjects(existing, incoming)

	require.Len(t, merged, 2)
	assert.Equal(t, "new name", merged[0].Name)
	assert.Equal(t, models.ProjectStatusActive, merged[0].Status)
	assert.Equal(t, "untouched", merged[1].Name)
}

func TestMergeProjects_KeepsOldStatusWhenIncomingEmpty(t *testing.T) {
	shared := uuid.New()
	existing := []models.Project{
		{ID: shared, Name: "old name", Status: models.ProjectStatusActive},
	}
	incoming := []models.Project{
		{ID: shared, Name: "new name"},
	}

	merged := services.MergeProjects(existing, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, "new name", merged[0].Name)
	assert.Equal(t, models.ProjectStatusActive, merged[0].Status)
}

func TestMergeProjects_AppendsNew(t *testing.T) {
	existing := []models.Project{
		{ID: uuid.New(), Name: "first"},
	}
	incoming := []models.Project{
		{ID: uuid.New(), Name: "second", Status: models.ProjectStatusInactive},
	}

	merged := services.MergeProjects(existing, incoming)

	require.Len(t, merged, 2)
	assert.Equal(t, "second", merged[1].Name)
}

func TestMergeProjects_Idempotent(t *testing.T) {
	shared := uuid.New()
	existing := []models.Project{
		{ID: shared, Name: "project", Status: models.ProjectStatusActive},
	}
	incoming := []models.Project{
		{ID: shared, Name: "project", Status: models.ProjectStatusActive},
	}

	once := services.MergeProjects(existing, incoming)
	twice := services.MergeProjects(once, incoming)

	assert.Equal(t, once, twice)
}
