package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Data Serialization API
// =============================================================================

// MarshalData converts a data snapshot to indented JSON bytes.
func MarshalData(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDataTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalData deserializes JSON bytes to a data snapshot.
func UnmarshalData(data []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return Data{}, err
	}
	return d, nil
}

// WriteDataFile writes a data snapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteDataFile(d Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeDataTo(d, f)
}

// WriteData writes a data snapshot as JSON to an io.Writer.
// Use MarshalData for in-memory serialization or WriteDataFile for files.
func WriteData(d Data, w io.Writer) error {
	return writeDataTo(d, w)
}

// ReadDataFile reads a JSON file and returns the decoded data snapshot.
func ReadDataFile(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readDataFrom(f)
}

// ReadData decodes a JSON data snapshot from an io.Reader.
// Use ReadDataFile for files or pass bytes.NewReader for in-memory data.
func ReadData(r io.Reader) (Data, error) {
	return readDataFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeDataTo(d Data, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readDataFrom(r io.Reader) (Data, error) {
	var d Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Data{}, fmt.Errorf("decode: %w", err)
	}
	return d, nil
}
