//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

// Package atomicio provides the temp-file-then-rename write discipline
// used by every artifact writer in this module (wire_analysis, garbled,
// labels.json, ot.json, eval.json), so that a crash or an I/O error
// never leaves a partial artifact at its final path.
package atomicio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile calls fn with a writer into a temporary file in the same
// directory as path, then renames the temporary file into place only
// if fn returns nil. On any error the temporary file is removed and
// path is left untouched.
func WriteFile(path string, fn func(*os.File) error) (err error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, "."+base+"-*.tmp")
	if err != nil {
		return fmt.Errorf("atomicio: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err = fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("atomicio: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomicio: %w", err)
	}
	return nil
}

// WriteJSON marshals v as indented JSON and writes it to path with the
// same atomic discipline as WriteFile.
func WriteJSON(path string, v interface{}) error {
	return WriteFile(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("atomicio: encoding %q: %w", path, err)
		}
		return nil
	})
}
