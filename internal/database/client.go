package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"datalens-backend/internal/models"
)

type Client struct {
	db *sql.DB
}

func NewClient(connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// ---- users ----

func (c *Client) CreateUser(userID uuid.UUID, name, email string) (*models.User, error) {
	var user models.User
	err := c.db.QueryRow(`
		INSERT INTO users (id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, created_at, updated_at
	`, userID, name, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (c *Client) GetUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := c.db.QueryRow(`
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail returns (nil, nil) when no row matches so the sync step can
// distinguish "not yet created" from a real failure.
func (c *Client) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := c.db.QueryRow(`
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// ---- projects ----

func (c *Client) CreateProject(userID uuid.UUID, name, description string) (*models.Project, error) {
	var project models.Project
	err := c.db.QueryRow(`
		INSERT INTO projects (id, user_id, name, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, name, description, status, created_at, updated_at
	`, uuid.New(), userID, name, description, models.ProjectStatusInactive).Scan(
		&project.ID, &project.UserID, &project.Name, &project.Description,
		&project.Status, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &project, nil
}

func (c *Client) GetProject(projectID, userID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := c.db.QueryRow(`
		SELECT id, user_id, name, description, status, created_at, updated_at
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID).Scan(
		&project.ID, &project.UserID, &project.Name, &project.Description,
		&project.Status, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

func (c *Client) GetProjectWithFiles(projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := c.GetProject(projectID, userID)
	if err != nil {
		return nil, err
	}

	files, err := c.ListProjectFiles(projectID)
	if err != nil {
		return nil, err
	}
	project.Files = files

	return project, nil
}

func (c *Client) ListProjects(userID uuid.UUID) ([]models.Project, error) {
	rows, err := c.db.Query(`
		SELECT id, user_id, name, description, status, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID, &project.UserID, &project.Name, &project.Description,
			&project.Status, &project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

func (c *Client) UpdateProject(projectID, userID uuid.UUID, name, description, status *string) (*models.Project, error) {
	var project models.Project
	err := c.db.QueryRow(`
		UPDATE projects
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    status = COALESCE($5, status),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, description, status, created_at, updated_at
	`, projectID, userID, name, description, status).Scan(
		&project.ID, &project.UserID, &project.Name, &project.Description,
		&project.Status, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return &project, nil
}

func (c *Client) UpdateProjectStatus(projectID uuid.UUID, status string) error {
	_, err := c.db.Exec(`
		UPDATE projects
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, projectID)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	return nil
}

func (c *Client) DeleteProject(projectID, userID uuid.UUID) error {
	_, err := c.db.Exec(`
		DELETE FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// ---- files ----

// CreateFile inserts the metadata row and touches the parent project's
// updated_at in the same transaction, so "recently modified" ordering
// follows file activity.
func (c *Client) CreateFile(file *models.File) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO files (id, project_id, name, size, description, file_uuid, file_path, table_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, file.ID, file.ProjectID, file.Name, file.Size, file.Description,
		file.FileUUID, file.FilePath, file.TableName)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := tx.Exec(`UPDATE projects SET updated_at = NOW() WHERE id = $1`, file.ProjectID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to touch project: %w", err)
	}

	return tx.Commit()
}

func (c *Client) GetFile(fileID uuid.UUID) (*models.File, error) {
	var file models.File
	err := c.db.QueryRow(`
		SELECT id, project_id, name, size, description, file_uuid, file_path, table_name, date_uploaded
		FROM files
		WHERE id = $1
	`, fileID).Scan(
		&file.ID, &file.ProjectID, &file.Name, &file.Size, &file.Description,
		&file.FileUUID, &file.FilePath, &file.TableName, &file.DateUploaded,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return &file, nil
}

func (c *Client) GetFileByUUID(fileUUID string) (*models.File, error) {
	var file models.File
	err := c.db.QueryRow(`
		SELECT id, project_id, name, size, description, file_uuid, file_path, table_name, date_uploaded
		FROM files
		WHERE file_uuid = $1
	`, fileUUID).Scan(
		&file.ID, &file.ProjectID, &file.Name, &file.Size, &file.Description,
		&file.FileUUID, &file.FilePath, &file.TableName, &file.DateUploaded,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get file by uuid: %w", err)
	}

	return &file, nil
}

func (c *Client) ListProjectFiles(projectID uuid.UUID) ([]models.File, error) {
	rows, err := c.db.Query(`
		SELECT id, project_id, name, size, description, file_uuid, file_path, table_name, date_uploaded
		FROM files
		WHERE project_id = $1
		ORDER BY date_uploaded DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		err := rows.Scan(
			&file.ID, &file.ProjectID, &file.Name, &file.Size, &file.Description,
			&file.FileUUID, &file.FilePath, &file.TableName, &file.DateUploaded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

func (c *Client) DeleteFile(fileID uuid.UUID) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var projectID uuid.UUID
	if err := tx.QueryRow(`SELECT project_id FROM files WHERE id = $1`, fileID).Scan(&projectID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get file project: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM files WHERE id = $1`, fileID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if _, err := tx.Exec(`UPDATE projects SET updated_at = NOW() WHERE id = $1`, projectID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to touch project: %w", err)
	}

	return tx.Commit()
}

// ---- visualizations ----

func (c *Client) CreateVisualization(viz *models.Visualization) (*models.Visualization, error) {
	if viz.Data == nil {
		viz.Data = json.RawMessage("null")
	}
	if viz.Layout == nil {
		viz.Layout = json.RawMessage("null")
	}

	var created models.Visualization
	err := c.db.QueryRow(`
		INSERT INTO visualizations (id, user_id, file_id, file_name, visualization_type, data, layout, description, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, file_id, file_name, visualization_type, data, layout, description, summary, created_at, updated_at
	`, viz.ID, viz.UserID, viz.FileID, viz.FileName, viz.VisualizationType,
		[]byte(viz.Data), []byte(viz.Layout), viz.Description, viz.Summary).Scan(
		&created.ID, &created.UserID, &created.FileID, &created.FileName,
		&created.VisualizationType, &created.Data, &created.Layout,
		&created.Description, &created.Summary, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create visualization: %w", err)
	}

	return &created, nil
}

func (c *Client) GetVisualization(vizID, userID uuid.UUID) (*models.Visualization, error) {
	var viz models.Visualization
	err := c.db.QueryRow(`
		SELECT id, user_id, file_id, file_name, visualization_type, data, layout, description, summary, created_at, updated_at
		FROM visualizations
		WHERE id = $1 AND user_id = $2
	`, vizID, userID).Scan(
		&viz.ID, &viz.UserID, &viz.FileID, &viz.FileName, &viz.VisualizationType,
		&viz.Data, &viz.Layout, &viz.Description, &viz.Summary,
		&viz.CreatedAt, &viz.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get visualization: %w", err)
	}

	return &viz, nil
}

func (c *Client) ListVisualizations(userID uuid.UUID) ([]models.Visualization, error) {
	rows, err := c.db.Query(`
		SELECT id, user_id, file_id, file_name, visualization_type, data, layout, description, summary, created_at, updated_at
		FROM visualizations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visualizations: %w", err)
	}
	defer rows.Close()

	var visualizations []models.Visualization
	for rows.Next() {
		var viz models.Visualization
		err := rows.Scan(
			&viz.ID, &viz.UserID, &viz.FileID, &viz.FileName, &viz.VisualizationType,
			&viz.Data, &viz.Layout, &viz.Description, &viz.Summary,
			&viz.CreatedAt, &viz.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visualization: %w", err)
		}
		visualizations = append(visualizations, viz)
	}

	return visualizations, rows.Err()
}

func (c *Client) UpdateVisualizationLayout(vizID, userID uuid.UUID, layout json.RawMessage) error {
	_, err := c.db.Exec(`
		UPDATE visualizations
		SET layout = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, []byte(layout), vizID, userID)
	if err != nil {
		return fmt.Errorf("failed to update visualization layout: %w", err)
	}
	return nil
}

func (c *Client) DeleteVisualization(vizID, userID uuid.UUID) error {
	_, err := c.db.Exec(`
		DELETE FROM visualizations
		WHERE id = $1 AND user_id = $2
	`, vizID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete visualization: %w", err)
	}
	return nil
}
