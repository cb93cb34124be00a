package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Storage errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDocumentNotFound   = fmt.Errorf("document not found")
	ErrObjectNotFound     = fmt.Errorf("object not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrEmptyQueue         = fmt.Errorf("queue is empty")

	// Pipeline and playback error kinds
	ErrValidation  = fmt.Errorf("validation failed")
	ErrAssetUpload = fmt.Errorf("asset upload failed")
	ErrRecordWrite = fmt.Errorf("record write failed")
	ErrPlayback    = fmt.Errorf("playback failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
