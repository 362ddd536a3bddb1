package cleaner

import "errors"

var (
	ErrInvalidInputURL    = errors.New("invalid input url")
	ErrNetwork            = errors.New("redirect request failed")
	ErrMissingLocation    = errors.New("redirect response has no location header")
	ErrInvalidLocationURL = errors.New("invalid location url")
	ErrPattern            = errors.New("invalid reserve rule pattern")
)
