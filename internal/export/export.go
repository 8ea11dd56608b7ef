// Package export writes finished games as JSON documents and renders them for
// terminals.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"deckcrafter/internal/types"
)

// EncodeJSON writes the document of state to w, indented by four spaces and
// without HTML escaping so accents and symbols stay readable.
func EncodeJSON(w io.Writer, state *types.GameState) error {
	doc, err := state.Document()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode game %s: %w", state.ID, err)
	}
	return nil
}

// WriteJSON writes the document of state to path, creating directories.
func WriteJSON(path string, state *types.GameState) error {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, state); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a document written by WriteJSON.
func ReadJSON(path string) (types.Document, error) {
	var doc types.Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}
