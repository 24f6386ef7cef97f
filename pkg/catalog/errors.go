package catalog

import "errors"

var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUpstreamTimeout  = errors.New("upstream request timed out")
	ErrUpstreamHTTP     = errors.New("upstream returned an error status")
	ErrUpstreamParse    = errors.New("could not parse upstream response")
)

// IsBadRequest reports whether err was caused by the caller's parameters.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrMissingParameter) || errors.Is(err, ErrInvalidParameter)
}
