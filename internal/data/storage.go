package data

import (
	"encoding/json"
	"io"
)

// StorageSnapshot is computed on demand and never cached.
type StorageSnapshot struct {
	TotalSpace       uint64   `json:"totalSpace"`
	FreeSpace        uint64   `json:"freeSpace"`
	UsedByModels     uint64   `json:"usedByModels"`
	DownloadedModels []string `json:"downloadedModels"`
}

func (s *StorageSnapshot) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(s) }
