package matches

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DecodeList decodes a JSON match list. Anything that is not an array
// (null, an object, a string) yields an empty list rather than an error, and
// array elements that are not match objects are skipped.
func DecodeList(raw json.RawMessage) []Match {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []Match{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Match{}
	}
	out := make([]Match, 0, len(items))
	for _, item := range items {
		var m Match
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// DecodeSelection reads a selected_matches document. Malformed lists are
// treated as empty; only a document that is not a JSON object fails.
func DecodeSelection(r io.Reader) (Selection, error) {
	var doc struct {
		Selected json.RawMessage `json:"selected_matches"`
		Parallel json.RawMessage `json:"parallel_matches"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Selection{}, fmt.Errorf("decode selection: %w", err)
	}
	return Selection{
		Selected: DecodeList(doc.Selected),
		Parallel: DecodeList(doc.Parallel),
	}, nil
}

// LoadSelectionFile reads a selected_matches.json file from disk.
func LoadSelectionFile(path string) (Selection, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Selection{}, err
	}
	defer fp.Close()

	sel, err := DecodeSelection(fp)
	if err != nil {
		return Selection{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return sel, nil
}
