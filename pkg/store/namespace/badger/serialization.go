package badger

import (
	"encoding/json"
	"fmt"

	"github.com/anvarov/drivebox/pkg/store/namespace"
)

// Serialization Strategy
// ======================
//
// Records (folders, files, grants) are stored as JSON: human-readable,
// easy to debug with badger's CLI tooling, and flexible when fields are
// added. Index values are raw 16-byte UUIDs: they are written and read
// far more often than records and never need schema evolution.

// encodeFolder serializes a folder record to JSON bytes.
func encodeFolder(folder *namespace.Folder) ([]byte, error) {
	data, err := json.Marshal(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder: %w", err)
	}
	return data, nil
}

// decodeFolder deserializes a folder record from JSON bytes.
func decodeFolder(data []byte) (*namespace.Folder, error) {
	var folder namespace.Folder
	if err := json.Unmarshal(data, &folder); err != nil {
		return nil, fmt.Errorf("failed to decode folder: %w", err)
	}
	return &folder, nil
}

// encodeFile serializes a file record to JSON bytes.
func encodeFile(file *namespace.File) ([]byte, error) {
	data, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file: %w", err)
	}
	return data, nil
}

// decodeFile deserializes a file record from JSON bytes.
func decodeFile(data []byte) (*namespace.File, error) {
	var file namespace.File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}
	return &file, nil
}

// encodeGrant serializes a grant record to JSON bytes.
func encodeGrant(grant *namespace.SharingGrant) ([]byte, error) {
	data, err := json.Marshal(grant)
	if err != nil {
		return nil, fmt.Errorf("failed to encode grant: %w", err)
	}
	return data, nil
}

// decodeGrant deserializes a grant record from JSON bytes.
func decodeGrant(data []byte) (*namespace.SharingGrant, error) {
	var grant namespace.SharingGrant
	if err := json.Unmarshal(data, &grant); err != nil {
		return nil, fmt.Errorf("failed to decode grant: %w", err)
	}
	return &grant, nil
}
