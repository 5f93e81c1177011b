package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a persisted configuration. Fields absent from the file keep
// their Default values.
func Load(path string) (ProcessingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProcessingConfig{}, fmt.Errorf("read config: %w", err)
	}
	c, err := Decode(data, isYAML(path))
	if err != nil {
		return ProcessingConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return c, nil
}

// Decode parses data (JSON, or YAML when yamlFormat is set) on top of Default.
func Decode(data []byte, yamlFormat bool) (ProcessingConfig, error) {
	c := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}
	if yamlFormat {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return ProcessingConfig{}, err
		}
		return c, nil
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return ProcessingConfig{}, err
	}
	return c, nil
}

// Save writes c to path, creating parent directories as needed.
func Save(path string, c ProcessingConfig) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
