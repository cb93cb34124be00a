package upload

import (
	"errors"
	"fmt"

	"github.com/desertthunder/encore/internal/shared"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindAssetUpload ErrorKind = "asset_upload"
	KindRecordWrite ErrorKind = "record_write"
)

// ValidationError is a user-input problem found before any side effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Kind() ErrorKind { return KindValidation }

func (e *ValidationError) Is(target error) bool { return target == shared.ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AssetUploadError reports a failed blob upload. Earlier assets may remain in storage.
type AssetUploadError struct {
	Asset   string
	Path    string
	Message string
	Err     error
}

func (e *AssetUploadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AssetUploadError) Kind() ErrorKind { return KindAssetUpload }

func (e *AssetUploadError) Unwrap() error { return e.Err }

func (e *AssetUploadError) Is(target error) bool { return target == shared.ErrAssetUpload }

// RecordWriteError reports a failed document write after every asset was uploaded.
type RecordWriteError struct {
	Collection string
	Message    string
	Err        error
}

func (e *RecordWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *RecordWriteError) Kind() ErrorKind { return KindRecordWrite }

func (e *RecordWriteError) Unwrap() error { return e.Err }

func (e *RecordWriteError) Is(target error) bool { return target == shared.ErrRecordWrite }

// Message returns the user-facing text of a pipeline error, falling back to err.Error().
func Message(err error) string {
	var (
		ve *ValidationError
		ae *AssetUploadError
		re *RecordWriteError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &re):
		return re.Message
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}
