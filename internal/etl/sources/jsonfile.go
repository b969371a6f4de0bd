package sources

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/buger/jsonparser"

	"datafill/internal/etl"
)

// ── JSON File Source ────────────────────────────────────────
// Reads records from a local JSON file.

type jsonFileSource struct{}

func init() { etl.RegisterSource(&jsonFileSource{}) }

func (s *jsonFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "json_file",
		Label: "JSON File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Path to the JSON file"},
			{Key: "dataPath", Label: "Data Path", Type: "string", Required: false, Help: "Dot-separated path to the records (e.g., 'data.items'). Leave empty if the root holds them."},
		},
	}
}

func (s *jsonFileSource) Fetch(ctx context.Context, cfg etl.SourceConfig) ([]byte, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	dataPath, _ := cfg["dataPath"].(string)
	return navigatePath(data, dataPath)
}

// navigatePath returns the object or array found at a dot-separated path.
// An empty path returns data unchanged.
func navigatePath(data []byte, path string) ([]byte, error) {
	if path == "" {
		return data, nil
	}
	value, dataType, _, err := jsonparser.Get(data, strings.Split(path, ".")...)
	if err != nil {
		return nil, fmt.Errorf("invalid data path %q: %w", path, err)
	}
	if dataType != jsonparser.Object && dataType != jsonparser.Array {
		return nil, fmt.Errorf("data path %q points to %s, want object or array", path, dataType)
	}
	return value, nil
}
