package errors

// ErrorCode identifies a class of failure.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101

	// Data errors (200-299)
	ErrCodeNoData ErrorCode = 204

	// Retrieval errors (700-799)
	ErrCodeFetchFailed ErrorCode = 700
	ErrCodeParseFailed ErrorCode = 701
)

// IsRetrieval reports whether the code belongs to the retrieval range.
func (c ErrorCode) IsRetrieval() bool {
	return c >= 700 && c < 800
}
