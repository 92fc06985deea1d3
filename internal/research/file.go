package research

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
)

// FileName is the research file written by earlier workflow stages
const FileName = "dados_pesquisa_web.json"

// Path returns <root>/<sessionID>/dados_pesquisa_web.json
func Path(root, sessionID string) string {
	return filepath.Join(root, sessionID, FileName)
}

// Load reads the research file of a session. A missing file returns an error wrapping os.ErrNotExist
func Load(root, sessionID string) (map[string]any, error) {
	data, err := os.ReadFile(Path(root, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read research file: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse research file: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Save writes the research file of a session, creating the session directory
func Save(root, sessionID string, doc map[string]any) error {
	path := Path(root, sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode research file: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write research file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit research file: %w", err)
	}
	return nil
}

// Records returns the list stored under key as records. Entries that are not objects are skipped
func Records(doc map[string]any, key string) []map[string]any {
	list, err := cast.ToSliceE(doc[key])
	if err != nil {
		return nil
	}

	records := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		record, err := cast.ToStringMapE(entry)
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}

// Map returns the object stored under key, or nil
func Map(doc map[string]any, key string) map[string]any {
	m, err := cast.ToStringMapE(doc[key])
	if err != nil {
		return nil
	}
	return m
}
