package feed

import (
	"errors"
	"fmt"
)

const (
	playLabel  = "Play"
	pauseLabel = "Pause"
)

var (
	ErrNotLoaded           = errors.New("feed not loaded")
	ErrIndexOutOfRange     = errors.New("player index out of range")
	ErrQualityOutOfRange   = errors.New("quality level out of range")
	ErrUnknownPage         = errors.New("unknown or stale page sequence")
	ErrUnknownEvent        = errors.New("unknown event")
	ErrAlreadyStarted      = errors.New("feed already started")
	ErrInvalidSeekPosition = errors.New("invalid seek position")
)

type pageResult struct {
	IDs    []VideoID `json:"ids"`
	Failed bool      `json:"failed"`
}

// State is everything one viewer's feed owns: the video list, the player pool and
// the current index. It is not safe for concurrent use; callers serialize events.
type State struct {
	Seed       VideoID   `json:"seed"`
	Videos     []VideoID `json:"videos"`
	Players    []Player  `json:"players"`
	Current    int       `json:"current"`
	URLVideoID VideoID   `json:"url_video_id"`
	Loaded     bool      `json:"loaded"`
	Selector   Selector  `json:"selector"`
	PlayLabel  string    `json:"play_label"`
	Config     Config    `json:"config"`

	// Pages are applied strictly in the order they were requested.
	NextSeq  uint64                 `json:"next_seq"`
	ApplySeq uint64                 `json:"apply_seq"`
	Pending  map[uint64]*pageResult `json:"pending,omitempty"`

	ViewsReported int `json:"views_reported"`
	ViewFailures  int `json:"view_failures"`
	LikesReported int `json:"likes_reported"`
	LikeFailures  int `json:"like_failures"`
}

// NewState returns the state of a feed opened at seed, before its first page.
func NewState(seed VideoID, cfg Config) *State {
	return &State{
		Seed:       seed,
		URLVideoID: seed,
		PlayLabel:  playLabel,
		Config:     cfg.withDefaults(),
		Selector:   Selector{Source: -1},
		NextSeq:    1,
		ApplySeq:   1,
	}
}

// Start requests the initial page.
func (s *State) Start() ([]Effect, error) {
	if s.NextSeq != 1 {
		return nil, ErrAlreadyStarted
	}
	return []Effect{s.requestPage()}, nil
}

// CurrentPlayer returns the visible player, or nil before the first page.
func (s *State) CurrentPlayer() *Player {
	if !s.Loaded || s.Current < 0 || s.Current >= len(s.Players) {
		return nil
	}
	return &s.Players[s.Current]
}

// Apply runs one event to completion and returns the effects it produced.
func (s *State) Apply(ev Event) ([]Effect, error) {
	switch ev := ev.(type) {
	case PageLoaded:
		return s.resolvePage(ev.Seq, &pageResult{IDs: ev.IDs})
	case PageFailed:
		return s.resolvePage(ev.Seq, &pageResult{Failed: true})
	case Scrolled:
		return s.scroll(Classify(ev.Offset, s.Config.ScrollBaseline)), nil
	case ScrollDown:
		return s.scroll(DirectionDown), nil
	case ScrollUp:
		return s.scroll(DirectionUp), nil
	case TogglePlay:
		if !s.Loaded {
			return nil, ErrNotLoaded
		}
		return s.toggle(), nil
	case Seek:
		return s.seek(ev.Position)
	case Progress:
		return s.progress(ev)
	case StreamInitialized:
		return s.streamInitialized(ev)
	case MetadataLoaded:
		return s.metadataLoaded(ev)
	case QualityChanged:
		return s.qualityChanged(ev.Level)
	case LikePressed:
		return []Effect{ReportLike{ID: s.URLVideoID, Value: ev.Value}}, nil
	case ViewReported:
		s.ViewsReported++
		if ev.Err != nil {
			s.ViewFailures++
		}
		return nil, nil
	case LikeReported:
		s.LikesReported++
		if ev.Err != nil {
			s.LikeFailures++
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

func (s *State) requestPage() FetchPage {
	seq := s.NextSeq
	s.NextSeq++
	return FetchPage{
		Seq:     seq,
		Seed:    s.Seed,
		Count:   s.Config.PageSize,
		Initial: seq == 1,
	}
}

func (s *State) resolvePage(seq uint64, res *pageResult) ([]Effect, error) {
	if seq < s.ApplySeq || seq >= s.NextSeq {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPage, seq)
	}
	if _, ok := s.Pending[seq]; ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPage, seq)
	}
	if s.Pending == nil {
		s.Pending = make(map[uint64]*pageResult)
	}
	s.Pending[seq] = res

	var effects []Effect
	for {
		next, ok := s.Pending[s.ApplySeq]
		if !ok {
			break
		}
		delete(s.Pending, s.ApplySeq)
		initial := s.ApplySeq == 1
		s.ApplySeq++

		switch {
		case initial:
			// A failed initial fetch still plays the seed.
			effects = append(effects, s.loadInitial(next.IDs)...)
		case !next.Failed:
			effects = append(effects, s.appendPage(next.IDs)...)
		}
	}
	if len(s.Pending) == 0 {
		s.Pending = nil
	}
	return effects, nil
}

func (s *State) loadInitial(page []VideoID) []Effect {
	s.Videos = BuildInitialList(s.Seed, page)
	s.Players = nil
	created := s.createPlayers(0, s.Videos)
	s.Loaded = true
	return append([]Effect{created}, s.playInitial(0)...)
}

func (s *State) appendPage(ids []VideoID) []Effect {
	if len(ids) == 0 {
		return nil
	}
	from := len(s.Videos)
	s.Videos = append(s.Videos, ids...)
	return []Effect{s.createPlayers(from, ids)}
}

func (s *State) createPlayers(from int, ids []VideoID) CreatePlayers {
	created := make([]Player, 0, len(ids))
	for i, id := range ids {
		p := Player{
			Index:       from + i,
			VideoID:     id,
			ManifestURL: ManifestURL(s.Config.MediaPrefix, id),
			Paused:      true,
			Quality:     -1,
		}
		s.Players = append(s.Players, p)
		created = append(created, p)
	}
	return CreatePlayers{Players: created}
}

func (s *State) playInitial(index int) []Effect {
	effects := []Effect{ReportView{ID: s.Videos[index]}}
	s.Players[index].Visible = true
	effects = append(effects, ShowPlayer{Index: index})
	s.Current = index
	effects = append(effects, s.toggle()...)
	return append(effects, s.bindSeekBar()...)
}

func (s *State) switchTo(index int) []Effect {
	id := s.Videos[index]
	effects := []Effect{ReportView{ID: id}}

	s.Players[s.Current].Visible = false
	effects = append(effects, HidePlayer{Index: s.Current})

	s.Players[index].Visible = true
	effects = append(effects, ShowPlayer{Index: index})
	s.Current = index

	s.URLVideoID = id
	effects = append(effects, PushHistory{Path: PlayPath(id)})

	effects = append(effects, s.toggle()...)
	return append(effects, s.bindSeekBar()...)
}

func (s *State) scroll(dir Direction) []Effect {
	reset := ResetScroll{Offset: s.Config.ScrollBaseline}
	if !s.Loaded {
		return []Effect{reset}
	}

	var effects []Effect
	if !s.Players[s.Current].Paused {
		effects = append(effects, s.toggle()...)
	}

	switch dir {
	case DirectionDown:
		if s.Current < len(s.Videos)-1 {
			effects = append(effects, s.switchTo(s.Current+1)...)
		}
		if ShouldPaginate(s.Current, len(s.Videos), s.Config.PrefetchDistance) {
			effects = append(effects, s.requestPage())
		}
	case DirectionUp:
		if s.Current > 0 {
			effects = append(effects, s.switchTo(s.Current-1)...)
		}
	}

	return append(effects, reset)
}

// toggle flips the current player between playing and paused, like a press of the
// play/pause button.
func (s *State) toggle() []Effect {
	p := &s.Players[s.Current]
	if p.Paused {
		p.Paused = false
		s.PlayLabel = pauseLabel
		return []Effect{SetPlayButton{Label: pauseLabel}, PlayPlayer{Index: p.Index}}
	}
	p.Paused = true
	s.PlayLabel = playLabel
	return []Effect{SetPlayButton{Label: playLabel}, PausePlayer{Index: p.Index}}
}

func (s *State) bindSeekBar() []Effect {
	p := &s.Players[s.Current]
	if !p.MetadataLoaded {
		p.AwaitingSeekBind = true
		return nil
	}
	p.AwaitingSeekBind = false
	return []Effect{SetSeekMax{Index: p.Index, Max: p.Duration}}
}

func (s *State) player(index int) (*Player, error) {
	if index < 0 || index >= len(s.Players) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return &s.Players[index], nil
}

func (s *State) seek(position float64) ([]Effect, error) {
	p := s.CurrentPlayer()
	if p == nil {
		return nil, ErrNotLoaded
	}
	if position < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeekPosition, position)
	}
	p.CurrentTime = position
	return []Effect{SeekPlayer{Index: p.Index, Position: position}}, nil
}

func (s *State) progress(ev Progress) ([]Effect, error) {
	p, err := s.player(ev.Index)
	if err != nil {
		return nil, err
	}
	p.CurrentTime = ev.Time
	if !s.Loaded || ev.Index != s.Current {
		return nil, nil
	}
	return []Effect{SetSeekValue{Value: ev.Time}}, nil
}

func (s *State) streamInitialized(ev StreamInitialized) ([]Effect, error) {
	p, err := s.player(ev.Index)
	if err != nil {
		return nil, err
	}

	ladder := make([]Quality, len(ev.Ladder))
	options := make([]QualityOption, len(ev.Ladder))
	for i, q := range ev.Ladder {
		q.Index = i
		ladder[i] = q
		options[i] = QualityOption{Value: i, Label: q.Label()}
	}
	p.Ladder = ladder
	p.LadderKnown = true

	// Whichever player initializes last owns the selector, current or not.
	s.Selector = Selector{Options: options, Source: ev.Index}
	return []Effect{SetQualityOptions{Source: ev.Index, Options: options}}, nil
}

func (s *State) metadataLoaded(ev MetadataLoaded) ([]Effect, error) {
	p, err := s.player(ev.Index)
	if err != nil {
		return nil, err
	}
	p.Duration = ev.Duration
	p.MetadataLoaded = true
	if !s.Loaded || ev.Index != s.Current || !p.AwaitingSeekBind {
		return nil, nil
	}
	p.AwaitingSeekBind = false
	return []Effect{SetSeekMax{Index: p.Index, Max: p.Duration}}, nil
}

// qualityChanged applies level to the current player, whichever player populated
// the selector.
func (s *State) qualityChanged(level int) ([]Effect, error) {
	p := s.CurrentPlayer()
	if p == nil {
		return nil, ErrNotLoaded
	}
	if level < 0 || (p.LadderKnown && level >= len(p.Ladder)) {
		return nil, fmt.Errorf("%w: %d", ErrQualityOutOfRange, level)
	}
	p.Quality = level
	return []Effect{ApplyQuality{Index: p.Index, Level: level}}, nil
}
