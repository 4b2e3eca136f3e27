package api

import (
	"time"

	"papercast/internal/jobs"
)

// SubmitRequest is the POST /api/jobs body.
type SubmitRequest struct {
	SourceReference string `json:"source_reference"`
	TextBackend     string `json:"text_backend,omitempty"`
	AudioBackend    string `json:"audio_backend,omitempty"`
	// GenerateAudio defaults to true when absent.
	GenerateAudio *bool `json:"generate_audio,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	JobID string `json:"job_id"`
}

// ResultPayload is the wire shape of a finished job's output.
type ResultPayload struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	Script   string `json:"script"`
	AudioRef string `json:"audio_ref,omitempty"`
}

// SnapshotPayload is the wire shape of a job snapshot.
type SnapshotPayload struct {
	JobID     string         `json:"job_id"`
	Status    string         `json:"status"`
	Progress  float64        `json:"progress"`
	Stage     string         `json:"stage,omitempty"`
	Message   string         `json:"message"`
	Result    *ResultPayload `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StatusResponse reports daemon health for GET /api/status.
type StatusResponse struct {
	Running       bool           `json:"running"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Jobs          map[string]int `json:"jobs"`
	Database      string         `json:"database"`
	LockPath      string         `json:"lock_path,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SnapshotFromJob converts a stored snapshot into its wire shape.
func SnapshotFromJob(snap jobs.Snapshot) SnapshotPayload {
	payload := SnapshotPayload{
		JobID:     snap.ID,
		Status:    string(snap.Status),
		Progress:  snap.Progress,
		Stage:     snap.Stage,
		Message:   snap.Message,
		Error:     snap.ErrorMessage,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.Result != nil {
		payload.Result = &ResultPayload{
			Title:    snap.Result.Title,
			Authors:  snap.Result.Authors,
			Abstract: snap.Result.Abstract,
			Script:   snap.Result.Script,
			AudioRef: snap.Result.AudioRef,
		}
	}
	return payload
}
