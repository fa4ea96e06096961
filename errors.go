package hlsfeed

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBody     = errors.New("hlsfeed: empty body")
	ErrRateLimited   = errors.New("hlsfeed: rate limited")
	ErrNotFound      = errors.New("hlsfeed: not found")
	ErrSuperseded    = errors.New("hlsfeed: load superseded by a newer load")
	ErrInvalidConfig = errors.New("hlsfeed: invalid config")
)

// DecodeError reports a malformed feed payload. Index is -1 when the payload
// as a whole is not a JSON array.
type DecodeError struct {
	Index int
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("decode feed: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("decode feed: item %d: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("decode feed: item %d: field %q: %v", e.Index, e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchErrorKind separates transport failures from malformed payloads.
type FetchErrorKind int

const (
	FetchNetwork FetchErrorKind = iota
	FetchDecode
)

func (k FetchErrorKind) String() string {
	if k == FetchDecode {
		return "decode"
	}
	return "network"
}

// FetchError is returned by Client.FetchFeed.
type FetchError struct {
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LikeError is returned by Client.PostLike.
type LikeError struct {
	ID  int
	Err error
}

func (e *LikeError) Error() string {
	return fmt.Sprintf("like video %d: %v", e.ID, e.Err)
}

func (e *LikeError) Unwrap() error { return e.Err }

// HTTPStatusError means the server answered with a non-2xx status.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
}

// Is lets 429 and 404 responses match the matching sentinels.
func (e *HTTPStatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == 429
	case ErrNotFound:
		return e.StatusCode == 404
	}
	return false
}
