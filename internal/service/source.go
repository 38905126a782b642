package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// ErrInvalidSource is returned for file names that escape the sources dir
// or are not GeoJSON.
var ErrInvalidSource = eris.New("invalid source file")

// ErrSourceNotFound is returned when a source file does not exist.
var ErrSourceNotFound = eris.New("source file not found")

// SourceService reads GeoJSON source files.
type SourceService struct {
	sourcesDir string
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string) *SourceService {
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
	}
}

var geojsonExts = map[string]bool{
	".geojson": true,
	".json":    true,
}

// List returns all available source files.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, eris.Wrap(err, "list sources")
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !geojsonExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: "GeoJSON",
		})
	}

	return files, nil
}

// Load reads and parses a GeoJSON feature collection.
func (s *SourceService) Load(name string) (*geojson.FeatureCollection, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrSourceNotFound, "source %q", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read source %q", name)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "parse source %q", name)
	}

	// A null entry in "features" decodes to a nil feature.
	features := fc.Features[:0]
	for _, f := range fc.Features {
		if f != nil {
			features = append(features, f)
		}
	}
	fc.Features = features
	return fc, nil
}

// Path validates a source file name and returns its location on disk.
func (s *SourceService) Path(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", eris.Wrapf(ErrInvalidSource, "name %q", name)
	}
	if !geojsonExts[strings.ToLower(filepath.Ext(name))] {
		return "", eris.Wrapf(ErrInvalidSource, "unsupported file type %q", filepath.Ext(name))
	}
	return filepath.Join(s.sourcesDir, name), nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
