package feed

// Effect is an output of State.Apply. Server effects are executed by the feed
// service against the backend; everything else is rendered by the page.
type Effect interface {
	Kind() string
}

// FetchPage asks for Count ids anchored at Seed. Results must come back as a
// PageLoaded or PageFailed event carrying the same Seq.
type FetchPage struct {
	Seq     uint64  `json:"seq"`
	Seed    VideoID `json:"seed"`
	Count   int     `json:"count"`
	Initial bool    `json:"initial"`
}

type ReportView struct {
	ID VideoID `json:"id"`
}

type ReportLike struct {
	ID    VideoID `json:"id"`
	Value bool    `json:"value"`
}

// CreatePlayers asks the page to create one hidden, paused media element and
// player per entry.
type CreatePlayers struct {
	Players []Player `json:"players"`
}

type ShowPlayer struct {
	Index int `json:"index"`
}

type HidePlayer struct {
	Index int `json:"index"`
}

type PlayPlayer struct {
	Index int `json:"index"`
}

type PausePlayer struct {
	Index int `json:"index"`
}

type SetPlayButton struct {
	Label string `json:"label"`
}

type PushHistory struct {
	Path string `json:"path"`
}

type SetSeekMax struct {
	Index int     `json:"index"`
	Max   float64 `json:"max"`
}

type SetSeekValue struct {
	Value float64 `json:"value"`
}

type SeekPlayer struct {
	Index    int     `json:"index"`
	Position float64 `json:"position"`
}

type SetQualityOptions struct {
	Source  int             `json:"source"`
	Options []QualityOption `json:"options"`
}

type ApplyQuality struct {
	Index int `json:"index"`
	Level int `json:"level"`
}

type ResetScroll struct {
	Offset int `json:"offset"`
}

func (FetchPage) Kind() string         { return "FETCH_PAGE" }
func (ReportView) Kind() string        { return "REPORT_VIEW" }
func (ReportLike) Kind() string        { return "REPORT_LIKE" }
func (CreatePlayers) Kind() string     { return "CREATE_PLAYERS" }
func (ShowPlayer) Kind() string        { return "SHOW_PLAYER" }
func (HidePlayer) Kind() string        { return "HIDE_PLAYER" }
func (PlayPlayer) Kind() string        { return "PLAY_PLAYER" }
func (PausePlayer) Kind() string       { return "PAUSE_PLAYER" }
func (SetPlayButton) Kind() string     { return "SET_PLAY_BUTTON" }
func (PushHistory) Kind() string       { return "PUSH_HISTORY" }
func (SetSeekMax) Kind() string        { return "SET_SEEK_MAX" }
func (SetSeekValue) Kind() string      { return "SET_SEEK_VALUE" }
func (SeekPlayer) Kind() string        { return "SEEK_PLAYER" }
func (SetQualityOptions) Kind() string { return "SET_QUALITY_OPTIONS" }
func (ApplyQuality) Kind() string      { return "APPLY_QUALITY" }
func (ResetScroll) Kind() string       { return "RESET_SCROLL" }

// IsServerEffect reports whether e must be executed by the service rather than
// sent to the page.
func IsServerEffect(e Effect) bool {
	switch e.(type) {
	case FetchPage, ReportView, ReportLike:
		return true
	}
	return false
}

// SplitEffects separates server effects from page effects, preserving order.
func SplitEffects(effects []Effect) (server, client []Effect) {
	for _, e := range effects {
		if IsServerEffect(e) {
			server = append(server, e)
		} else {
			client = append(client, e)
		}
	}
	return server, client
}
