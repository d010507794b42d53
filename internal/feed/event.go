package feed

// Event is an input to State.Apply.
type Event interface {
	event()
}

// Direction is the navigation intent of a scroll gesture.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionDown
	DirectionUp
)

func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "down"
	case DirectionUp:
		return "up"
	default:
		return "none"
	}
}

// Classify maps a scroll offset to a direction. An offset exactly at the baseline
// carries no intent.
func Classify(offset, baseline int) Direction {
	switch {
	case offset > baseline:
		return DirectionDown
	case offset < baseline:
		return DirectionUp
	default:
		return DirectionNone
	}
}

// PageLoaded delivers the ids returned for the FetchPage effect with the same Seq.
type PageLoaded struct {
	Seq uint64
	IDs []VideoID
}

// PageFailed reports that the FetchPage effect with the same Seq did not complete.
type PageFailed struct {
	Seq uint64
	Err error
}

// Scrolled is a raw scroll event carrying the page's vertical offset.
type Scrolled struct {
	Offset int
}

type ScrollDown struct{}

type ScrollUp struct{}

// TogglePlay is a press of the play/pause button.
type TogglePlay struct{}

type Seek struct {
	Position float64
}

// Progress is a playback time report for the player at Index.
type Progress struct {
	Index int
	Time  float64
}

// StreamInitialized is the streaming library's readiness event for the player at
// Index, carrying its quality ladder.
type StreamInitialized struct {
	Index  int
	Ladder []Quality
}

type MetadataLoaded struct {
	Index    int
	Duration float64
}

// QualityChanged is a selection in the quality selector.
type QualityChanged struct {
	Level int
}

type LikePressed struct {
	Value bool
}

type ViewReported struct {
	ID  VideoID
	Err error
}

type LikeReported struct {
	ID    VideoID
	Value bool
	Err   error
}

func (PageLoaded) event()        {}
func (PageFailed) event()        {}
func (Scrolled) event()          {}
func (ScrollDown) event()        {}
func (ScrollUp) event()          {}
func (TogglePlay) event()        {}
func (Seek) event()              {}
func (Progress) event()          {}
func (StreamInitialized) event() {}
func (MetadataLoaded) event()    {}
func (QualityChanged) event()    {}
func (LikePressed) event()       {}
func (ViewReported) event()      {}
func (LikeReported) event()      {}
