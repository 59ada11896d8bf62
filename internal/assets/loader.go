package assets

import (
	"encoding/base64"
	"html/template"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"geosismica/internal/logger"
)

// Branding file names looked up under the assets directory.
const (
	UniversityLogo = "uce.jpg"
	FacultyLogo    = "geologia.jpg"
)

// Asset is an image ready to be inlined as a data URI. The zero value means
// the file was not available.
type Asset struct {
	MIME    string
	Base64  string
	Present bool
}

// DataURI returns the src attribute value, or "" for a missing asset.
func (a Asset) DataURI() template.URL {
	if !a.Present {
		return ""
	}
	return template.URL("data:" + a.MIME + ";base64," + a.Base64)
}

// Load reads path and encodes it. Missing or unreadable files are expected
// (logos are optional) and yield the zero Asset.
func Load(path string) Asset {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Debug("Branding asset not available")
		return Asset{}
	}
	if len(data) == 0 {
		return Asset{}
	}
	return Asset{
		MIME:    mimetype.Detect(data).String(),
		Base64:  base64.StdEncoding.EncodeToString(data),
		Present: true,
	}
}

// Branding holds the two header logos.
type Branding struct {
	University Asset
	Faculty    Asset
}

// LoadBranding loads both logos from dir once at startup.
func LoadBranding(dir string) Branding {
	b := Branding{
		University: Load(filepath.Join(dir, UniversityLogo)),
		Faculty:    Load(filepath.Join(dir, FacultyLogo)),
	}
	logger.WithFields(logrus.Fields{
		"dir":        dir,
		"university": b.University.Present,
		"faculty":    b.Faculty.Present,
	}).Info("Branding assets loaded")
	return b
}
