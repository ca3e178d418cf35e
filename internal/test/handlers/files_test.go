package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"datalens-backend/internal/handlers"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/middleware"
	"datalens-backend/internal/models"
)

type fakeFilesDB struct {
	projects map[uuid.UUID]*models.Project
	files    map[uuid.UUID]*models.File
	deleted  []uuid.UUID
}

func (f *fakeFilesDB) GetProject(projectID, userID uuid.UUID) (*models.Project, error) {
	project, ok := f.projects[projectID]
	if !ok || project.UserID != userID {
		return nil, assert.AnError
	}
	return project, nil
}

func (f *fakeFilesDB) GetFile(fileID uuid.UUID) (*models.File, error) {
	file, ok := f.files[fileID]
	if !ok {
		return nil, assert.AnError
	}
	return file, nil
}

func (f *fakeFilesDB) GetFileByUUID(fileUUID string) (*models.File, error) {
	for _, file := range f.files {
		if file.FileUUID == fileUUID {
			return file, nil
		}
	}
	return nil, assert.AnError
}

func (f *fakeFilesDB) ListProjectFiles(projectID uuid.UUID) ([]models.File, error) {
	var out []models.File
	for _, file := range f.files {
		if file.ProjectID == projectID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFilesDB) DeleteFile(fileID uuid.UUID) error {
	f.deleted = append(f.deleted, fileID)
	return nil
}

func filesRouter(db *fakeFilesDB, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID.String())
	})
	h := handlers.NewFilesHandler(db, nil, nil, logger.NewNop())
	router.DELETE("/projects/:project_id/files/:file_id", h.DeleteFile)
	return router
}

func TestFilesHandler_DeleteFile(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()
	fileID := uuid.New()
	db := &fakeFilesDB{
		projects: map[uuid.UUID]*models.Project{
			projectID: {ID: projectID, UserID: userID},
		},
		files: map[uuid.UUID]*models.File{
			fileID: {ID: fileID, ProjectID: projectID, FileUUID: "f1"},
		},
	}
	router := filesRouter(db, userID)

	req, _ := http.NewRequest("DELETE", "/projects/"+projectID.String()+"/files/"+fileID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{fileID}, db.deleted)
}

func TestFilesHandler_DeleteFile_WrongProjectPath(t *testing.T) {
	userID := uuid.New()
	projectA := uuid.New()
	projectB := uuid.New()
	fileID := uuid.New()
	db := &fakeFilesDB{
		projects: map[uuid.UUID]*models.Project{
			projectA: {ID: projectA, UserID: userID},
			projectB: {ID: projectB, UserID: userID},
		},
		files: map[uuid.UUID]*models.File{
			fileID: {ID: fileID, ProjectID: projectB, FileUUID: "f1"},
		},
	}
	router := filesRouter(db, userID)

	// The file lives under project B; addressing it through project A's URL
	// must not delete it even though the user owns both projects.
	req, _ := http.NewRequest("DELETE", "/projects/"+projectA.String()+"/files/"+fileID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, db.deleted)
}

func TestFilesHandler_DeleteFile_ForeignProject(t *testing.T) {
	owner := uuid.New()
	intruder := uuid.New()
	projectID := uuid.New()
	fileID := uuid.New()
	db := &fakeFilesDB{
		projects: map[uuid.UUID]*models.Project{
			projectID: {ID: projectID, UserID: owner},
		},
		files: map[uuid.UUID]*models.File{
			fileID: {ID: fileID, ProjectID: projectID, FileUUID: "f1"},
		},
	}
	router := filesRouter(db, intruder)

	req, _ := http.NewRequest("DELETE", "/projects/"+projectID.String()+"/files/"+fileID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, db.deleted)
}
