package hlsfeed

import (
	"encoding/json"
	"errors"
)

// Feed API response. Pointer fields tell a missing or null field apart from a
// zero value.

type rawVideo struct {
	ID       *int
	Filename *string
	HLSURL   *string
	Likes    *int
}

var (
	errNotArray      = errors.New("payload is not a JSON array")
	errMissingField  = errors.New("missing or null")
	errEmptyFilename = errors.New("must not be empty")
	errNegativeLikes = errors.New("must not be negative")
)

// DecodeVideos parses a feed payload and normalizes every stream URL against
// host. Any malformed element fails the whole batch.
func DecodeVideos(body []byte, host string) ([]Video, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &DecodeError{Index: -1, Err: err}
	}
	if items == nil {
		return nil, &DecodeError{Index: -1, Err: errNotArray}
	}

	videos := make([]Video, 0, len(items))
	for i, item := range items {
		raw, err := decodeRawVideo(i, item)
		if err != nil {
			return nil, err
		}
		videos = append(videos, parseVideo(raw, host))
	}
	return videos, nil
}

func decodeRawVideo(index int, item json.RawMessage) (rawVideo, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return rawVideo{}, &DecodeError{Index: index, Err: err}
	}

	// Keys are matched exactly; encoding/json would also accept "ID" or "Likes".
	var raw rawVideo
	for _, f := range []struct {
		name string
		dst  any
	}{
		{"id", &raw.ID},
		{"filename", &raw.Filename},
		{"hls_url", &raw.HLSURL},
		{"likes", &raw.Likes},
	} {
		v, ok := fields[f.name]
		if !ok {
			return rawVideo{}, &DecodeError{Index: index, Field: f.name, Err: errMissingField}
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return rawVideo{}, &DecodeError{Index: index, Field: f.name, Err: err}
		}
	}

	switch {
	case raw.ID == nil:
		return rawVideo{}, &DecodeError{Index: index, Field: "id", Err: errMissingField}
	case raw.Filename == nil:
		return rawVideo{}, &DecodeError{Index: index, Field: "filename", Err: errMissingField}
	case raw.HLSURL == nil:
		return rawVideo{}, &DecodeError{Index: index, Field: "hls_url", Err: errMissingField}
	case raw.Likes == nil:
		return rawVideo{}, &DecodeError{Index: index, Field: "likes", Err: errMissingField}
	case *raw.Filename == "":
		return rawVideo{}, &DecodeError{Index: index, Field: "filename", Err: errEmptyFilename}
	case *raw.Likes < 0:
		return rawVideo{}, &DecodeError{Index: index, Field: "likes", Err: errNegativeLikes}
	}
	return raw, nil
}

// parseVideo converts a validated raw video to the public Video type.
func parseVideo(raw rawVideo, host string) Video {
	return Video{
		ID:        *raw.ID,
		Filename:  *raw.Filename,
		StreamURL: NormalizeStreamURL(*raw.HLSURL, host),
		Likes:     *raw.Likes,
	}
}
