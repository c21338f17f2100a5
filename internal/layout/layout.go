package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinoosan/modelkeep/internal/data"
)

// Dedicated is the layout version that gives a model its own subdirectory.
// Every other version stores files flat in the shared models root.
const Dedicated = 1

// Layout resolves where model files live under the models root.
type Layout struct {
	root string
}

// New returns a Layout rooted at root, creating the directory if needed.
func New(root string) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create models directory: %w", err)
	}
	return &Layout{root: filepath.Clean(abs)}, nil
}

// Root is the absolute models directory.
func (l *Layout) Root() string { return l.root }

// Dir resolves the directory for a model and creates it if absent.
func (l *Layout) Dir(modelID string, version int) (string, error) {
	dir, err := l.dirPath(modelID, version)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}
	return dir, nil
}

func (l *Layout) dirPath(modelID string, version int) (string, error) {
	if version != Dedicated {
		return l.root, nil
	}
	if err := ValidateID(modelID); err != nil {
		return "", err
	}
	return filepath.Join(l.root, modelID), nil
}

// ValidateID rejects ids that cannot be used as a single path element.
func ValidateID(modelID string) error {
	if strings.TrimSpace(modelID) == "" || modelID == "." || modelID == ".." ||
		strings.ContainsAny(modelID, `/\`) || strings.ContainsRune(modelID, 0) {
		return data.ErrInvalidModelID
	}
	return nil
}

// PrimaryPath is the destination of the manifest's primary model file.
func (l *Layout) PrimaryPath(m *data.ModelManifest) (string, error) {
	dir, err := l.Dir(m.ID, m.LayoutVersion)
	if err != nil {
		return "", err
	}
	return within(dir, m.ModelFileName)
}

// Plan expands a manifest into its ordered transfers: the primary file, the
// auxiliary file, then each extra file in manifest order. Entries without a
// URL are skipped.
func (l *Layout) Plan(m *data.ModelManifest) ([]data.FileTransferSpec, error) {
	dir, err := l.Dir(m.ID, m.LayoutVersion)
	if err != nil {
		return nil, err
	}
	var specs []data.FileTransferSpec
	add := func(rel, url string) error {
		if url == "" {
			return nil
		}
		dst, err := within(dir, rel)
		if err != nil {
			return err
		}
		specs = append(specs, data.FileTransferSpec{DestinationPath: dst, RemoteURL: url})
		return nil
	}
	if err := add(m.ModelFileName, m.PrimaryURL); err != nil {
		return nil, err
	}
	if err := add(m.AuxFileName, m.AuxURL); err != nil {
		return nil, err
	}
	for _, f := range m.Files {
		if err := add(filepath.Join(f.Path, f.Name), f.URL); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

// OwnedPaths lists what deleting a model removes: the dedicated directory
// itself, or the individual named files inside the shared root.
func (l *Layout) OwnedPaths(m *data.ModelManifest) ([]string, error) {
	if m.LayoutVersion == Dedicated {
		dir, err := l.dirPath(m.ID, m.LayoutVersion)
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	var paths []string
	names := []string{m.ModelFileName, m.AuxFileName}
	for _, f := range m.Files {
		names = append(names, filepath.Join(f.Path, f.Name))
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		p, err := within(l.root, n)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// within joins rel onto base and refuses results outside base or equal to it.
func within(base, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("%w: empty file name", data.ErrUnsafePath)
	}
	p := filepath.Clean(filepath.Join(base, rel))
	baseWithSep := base
	if !strings.HasSuffix(baseWithSep, string(os.PathSeparator)) {
		baseWithSep += string(os.PathSeparator)
	}
	if p == base || !strings.HasPrefix(p, baseWithSep) {
		return "", fmt.Errorf("%w: %s", data.ErrUnsafePath, rel)
	}
	return p, nil
}
