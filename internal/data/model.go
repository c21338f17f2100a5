package data

import (
	"encoding/json"
	"io"
)

// ModelFile is an extra artifact listed in a manifest's files section.
// Path is a directory relative to the model directory and may be empty.
type ModelFile struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	URL  string `json:"url" yaml:"url"`
}

// ModelManifest describes one model of the catalog and the remote files
// that together make up its on-disk artifact set.
type ModelManifest struct {
	ID            string      `json:"id" yaml:"id"`
	DisplayName   string      `json:"displayName" yaml:"displayName"`
	ModelFileName string      `json:"modelName" yaml:"modelName"`
	AuxFileName   string      `json:"mmprojOrTokenName" yaml:"mmprojOrTokenName"`
	SizeGB        float64     `json:"sizeGb" yaml:"sizeGb"`
	Params        string      `json:"params" yaml:"params"`
	Features      []string    `json:"features" yaml:"features"`
	Type          string      `json:"type" yaml:"type"`
	LayoutVersion int         `json:"versionCode" yaml:"versionCode"`
	PrimaryURL    string      `json:"modelUrl" yaml:"modelUrl"`
	AuxURL        string      `json:"mmprojOrTokenUrl" yaml:"mmprojOrTokenUrl"`
	Files         []ModelFile `json:"files" yaml:"files"`
}

// Models is a catalog listing.
type Models []*ModelManifest

// FileTransferSpec is a single concrete transfer: one remote URL written to
// one local destination.
type FileTransferSpec struct {
	DestinationPath string
	RemoteURL       string
}

func (m *ModelManifest) Clone() *ModelManifest {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Features != nil {
		cp.Features = append([]string(nil), m.Features...)
	}
	if m.Files != nil {
		cp.Files = append([]ModelFile(nil), m.Files...)
	}
	return &cp
}

func (ms Models) Clone() Models {
	out := make(Models, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}

func (m *ModelManifest) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(m) }

func (ms Models) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(ms) }
