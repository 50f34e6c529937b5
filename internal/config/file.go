package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadFile reads a flat YAML mapping whose keys are the same names as the
// environment variables, e.g.
//
//	ORCID_SANDBOX: false
//	PUSH_WORKERS: 8
func loadFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return nil, err
	}

	return parseFile(data)
}

func parseFile(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" || value == nil {
			continue
		}
		switch v := value.(type) {
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("key %s: nested values are not supported", key)
		case string:
			values[key] = v
		default:
			values[key] = fmt.Sprint(v)
		}
	}
	return values, nil
}
