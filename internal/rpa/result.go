package rpa

import "errors"

// Result is the outcome of a single screen operation.
type Result int

const (
	Success Result = iota
	ImageNotFound
	FileNotExists
	ClickFailed
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrFileNotExists = errors.New("template file does not exist")
	ErrClickFailed   = errors.New("click failed")
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case ImageNotFound:
		return "image_not_found"
	case FileNotExists:
		return "file_not_exists"
	case ClickFailed:
		return "click_failed"
	default:
		return "unknown"
	}
}

// Err returns nil for Success and the matching sentinel otherwise.
func (r Result) Err() error {
	switch r {
	case Success:
		return nil
	case ImageNotFound:
		return ErrImageNotFound
	case FileNotExists:
		return ErrFileNotExists
	default:
		return ErrClickFailed
	}
}
