package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/colonyops/feedsync/internal/loop"
	"github.com/colonyops/feedsync/internal/playback"
)

// ErrUnsupportedMedia is reported for URLs that are not video.
var ErrUnsupportedMedia = errors.New("unsupported media type")

type loadReporter interface {
	Loaded(id string)
	Failed(id string, err error)
}

type mediaPhase int

const (
	phaseLoading mediaPhase = iota
	phasePaused
	phasePlaying
)

type mediaTrack struct {
	url   string
	phase mediaPhase
	gen   int
}

// SimPlayer stands in for a decoder in the terminal. Loads resolve after a
// fixed latency; non-video URLs fail permanently and URLs containing "flaky"
// time out twice before loading.
type SimPlayer struct {
	runner   loop.Runner
	reporter loadReporter
	latency  time.Duration

	tracks   map[string]*mediaTrack
	timeouts map[string]int
	gen      int
	muted    bool
	rate     float64
}

// NewSimPlayer creates a player. Bind must be called before the first Load.
func NewSimPlayer(runner loop.Runner, latency time.Duration) *SimPlayer {
	return &SimPlayer{
		runner:   runner,
		latency:  latency,
		tracks:   make(map[string]*mediaTrack),
		timeouts: make(map[string]int),
		rate:     1,
	}
}

// Bind sets where load results are reported.
func (p *SimPlayer) Bind(r loadReporter) { p.reporter = r }

func (p *SimPlayer) Load(id, url string) {
	p.gen++
	t := &mediaTrack{url: url, phase: phaseLoading, gen: p.gen}
	p.tracks[id] = t

	p.runner.After(p.latency, func() {
		cur, ok := p.tracks[id]
		if !ok || cur.gen != t.gen || p.reporter == nil {
			return
		}
		switch {
		case !playback.IsVideo(url):
			p.reporter.Failed(id, ErrUnsupportedMedia)
		case strings.Contains(url, "flaky") && p.timeouts[id] < 2:
			p.timeouts[id]++
			p.reporter.Failed(id, context.DeadlineExceeded)
		default:
			cur.phase = phasePaused
			p.reporter.Loaded(id)
		}
	})
}

func (p *SimPlayer) Play(id string) {
	if t, ok := p.tracks[id]; ok {
		t.phase = phasePlaying
	}
}

func (p *SimPlayer) Pause(id string) {
	if t, ok := p.tracks[id]; ok && t.phase == phasePlaying {
		t.phase = phasePaused
	}
}

func (p *SimPlayer) Apply(_ string, muted bool, rate float64) {
	p.muted = muted
	p.rate = rate
}

func (p *SimPlayer) Release(id string) { delete(p.tracks, id) }

// PlayingCount returns how many tracks are playing.
func (p *SimPlayer) PlayingCount() int {
	n := 0
	for _, t := range p.tracks {
		if t.phase == phasePlaying {
			n++
		}
	}
	return n
}

// Loaded returns how many tracks are held.
func (p *SimPlayer) Loaded() int { return len(p.tracks) }
