package config

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"inspire-orcid/pkg/logger"
)

const dotenvFilename = ".env"

type dotenvResult struct {
	path    string
	loaded  int
	skipped int
}

// loadDotEnv applies the nearest .env (searching upwards from the working
// directory) without overriding variables already present in the process.
func loadDotEnv(log logger.Logger) error {
	path, ok := findUpwards(dotenvFilename)
	if !ok {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	result, err := applyDotEnv(file)
	if err != nil {
		return err
	}
	result.path = path

	log.Info("dotenv: loaded variables", "count", result.loaded, "path", result.path)
	if result.skipped > 0 {
		log.Info("dotenv: skipped variables already set in env", "count", result.skipped)
	}
	return nil
}

func findUpwards(filename string) (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func applyDotEnv(r io.Reader) (dotenvResult, error) {
	var result dotenvResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		key, value, ok := parseDotEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			result.skipped++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return result, err
		}
		result.loaded++
	}

	return result, scanner.Err()
}

func parseDotEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

	key, value, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[0] == value[len(value)-1] {
		if value[0] == '"' {
			if unquoted, err := strconv.Unquote(value); err == nil {
				return key, unquoted, true
			}
		}
		return key, value[1 : len(value)-1], true
	}

	// "a=b # note" drops the comment, "a=b#c" keeps the hash.
	if idx := strings.Index(value, " #"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	if idx := strings.Index(value, "\t#"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return key, value, true
}
