package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadData decodes a binding data file by extension: .json, .yaml/.yml or
// .toml.
func LoadData(path string) (interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var value interface{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(content, &value)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &value)
	case ".toml":
		var doc map[string]interface{}
		err = toml.Unmarshal(content, &doc)
		value = doc
	default:
		return nil, fmt.Errorf("unsupported data file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return value, nil
}
