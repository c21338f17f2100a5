package data

import (
	"encoding/json"
	"io"
	"time"
)

// DownloadStatus is the status carried by every ProgressEvent.
type DownloadStatus string

const (
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusCancelled   DownloadStatus = "cancelled"
	StatusFailed      DownloadStatus = "failed"
)

// Terminal reports whether no further events follow a status.
func (s DownloadStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// ProgressEvent is a single progress update for one model download.
// All fields are always present on the wire.
type ProgressEvent struct {
	ModelID         string         `json:"modelId"`
	DownloadedBytes uint64         `json:"downloadedBytes"`
	TotalBytes      uint64         `json:"totalBytes"`
	Percentage      int            `json:"percentage"`
	SpeedMBps       float64        `json:"speedMBps"`
	Status          DownloadStatus `json:"status"`
}

// NewProgressEvent builds an event and derives Percentage from the byte
// counters.
func NewProgressEvent(modelID string, downloaded, total uint64, speed float64, status DownloadStatus) ProgressEvent {
	return ProgressEvent{
		ModelID:         modelID,
		DownloadedBytes: downloaded,
		TotalBytes:      total,
		Percentage:      Percentage(downloaded, total),
		SpeedMBps:       speed,
		Status:          status,
	}
}

// Percentage is floor(downloaded*100/total), 0 when total is 0, and never
// above 100.
func Percentage(downloaded, total uint64) int {
	if total == 0 {
		return 0
	}
	if downloaded >= total {
		return 100
	}
	return int(downloaded * 100 / total)
}

const bytesPerMB = 1024 * 1024

// SpeedMBps is the average throughput in MiB/s over elapsed.
func SpeedMBps(bytes uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(bytes) / bytesPerMB / elapsed.Seconds()
}

func (e ProgressEvent) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(e) }
