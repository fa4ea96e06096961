package hlsfeed

// Video is one entry of the feed as the viewer plays it.
type Video struct {
	ID        int
	Filename  string
	StreamURL string
	Likes     int
}

// Direction selects the neighbour Navigate moves to.
type Direction int

const (
	Previous Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Next {
		return "next"
	}
	return "previous"
}

// State is a consistent snapshot of a Feed. Records is a copy and may be kept
// by the caller.
type State struct {
	Records []Video
	Cursor  int
	Loading bool
}

// Current returns the record under the cursor.
func (s State) Current() (Video, bool) {
	if len(s.Records) == 0 || s.Cursor < 0 || s.Cursor >= len(s.Records) {
		return Video{}, false
	}
	return s.Records[s.Cursor], true
}
