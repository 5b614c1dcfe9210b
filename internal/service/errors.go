package service

import "errors"

// Validation failures. Nothing is written when one of these is returned.
var (
	ErrNoFileProvided  = errors.New("no file uploaded")
	ErrInvalidFileType = errors.New("only PDF files are allowed")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
)

// Lookup failures.
var (
	ErrNotFound     = errors.New("document not found")
	ErrFileNotFound = errors.New("file not found on server")
)

// Storage failures.
var (
	ErrStorageWriteFailed  = errors.New("failed to store file")
	ErrMetadataWriteFailed = errors.New("error saving file metadata")
)

// IsValidation reports whether err is a client-side upload mistake.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoFileProvided) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrFileTooLarge)
}

// IsNotFound reports whether err means the document or its blob does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrFileNotFound)
}
