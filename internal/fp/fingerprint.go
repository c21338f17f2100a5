package fp

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tinoosan/modelkeep/internal/data"
)

// NormalizeURL trims surrounding whitespace.
func NormalizeURL(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeName trims whitespace and cleans a relative file name.
func NormalizeName(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	return filepath.Clean(p)
}

// Manifest computes a stable hex-encoded SHA-256 over everything that decides
// what a model download writes: id, layout and every (name, url) pair in
// transfer order. Display fields do not contribute.
func Manifest(m *data.ModelManifest) string {
	h := sha256.New()
	// NUL cannot appear in ids, names or urls.
	field := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	field(strings.TrimSpace(m.ID))
	field(strconv.Itoa(m.LayoutVersion))
	field(NormalizeName(m.ModelFileName))
	field(NormalizeURL(m.PrimaryURL))
	field(NormalizeName(m.AuxFileName))
	field(NormalizeURL(m.AuxURL))
	for _, f := range m.Files {
		field(NormalizeName(filepath.Join(f.Path, f.Name)))
		field(NormalizeURL(f.URL))
	}
	return hex.EncodeToString(h.Sum(nil))
}
