package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskProcessScan = "scans.process"

const TaskIngestMedia = "whatsapp.ingest"

// ProcessScanPayload runs the analysis pipeline for one queued scan.
type ProcessScanPayload struct {
	ScanID string `json:"scanId"`
}

// IngestMediaPayload downloads a WhatsApp shelf photo and feeds it into
// the pipeline.
type IngestMediaPayload struct {
	StoreID   string `json:"storeId"`
	Phone     string `json:"phone"`
	MediaURL  string `json:"mediaUrl"`
	MediaType string `json:"mediaType"`
}

func NewProcessScanTask(payload ProcessScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProcessScan, data), nil
}

func ParseProcessScanPayload(task *asynq.Task) (ProcessScanPayload, error) {
	var payload ProcessScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ProcessScanPayload{}, err
	}
	return payload, nil
}

func NewIngestMediaTask(payload IngestMediaPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIngestMedia, data), nil
}

func ParseIngestMediaPayload(task *asynq.Task) (IngestMediaPayload, error) {
	var payload IngestMediaPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IngestMediaPayload{}, err
	}
	return payload, nil
}
