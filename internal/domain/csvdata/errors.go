package csvdata

import "errors"

var (
	ErrRequestIDRequired = errors.New("requestId is required")
	ErrFileRequired      = errors.New("csv file is required")
	ErrNotCSV            = errors.New("only csv files are allowed")
	ErrNoClientAvailable = errors.New("no websocket client connected")
	ErrParse             = errors.New("malformed csv")
	ErrStorage           = errors.New("storage failure")
	ErrRecordNotFound    = errors.New("csv record not found")
)

// IsInvalidRequest reports whether err was caused by missing or unacceptable input.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrRequestIDRequired) ||
		errors.Is(err, ErrFileRequired) ||
		errors.Is(err, ErrNotCSV)
}
