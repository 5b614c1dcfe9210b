package model

import "time"

// Document is the metadata record of one uploaded PDF.
// This is a pure domain model with no database-specific dependencies or tags.
// OriginalName is user supplied and only ever displayed; StoredName and StoragePath
// are generated by the server.
type Document struct {
	ID           int64     `json:"id"`
	StoredName   string    `json:"storedName"`
	OriginalName string    `json:"originalName"`
	StoragePath  string    `json:"storagePath"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    time.Time `json:"createdAt"`
}
