package negamax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fourply/fourply/board"
)

var (
	ErrNotInitialized = errors.New("solver is not initialized")
)

// Solver finds the exact ply score of a position. It owns its transposition
// table and node counter, so separate solvers never share state. A Solver is
// single-threaded: do not call Solve concurrently on the same instance.
type Solver struct {
	ttable *TranspositionTable

	// transpositionTableOptim can be turned off to check that the table
	// only changes speed, never results.
	transpositionTableOptim bool
	// firstWinOptim only decides win/draw/loss (a "weak" solve) by searching
	// the window [-1, 1]. Scores come back as -1, 0 or 1.
	firstWinOptim bool

	nodes atomic.Uint64

	logStream io.Writer
}

// Init allocates a transposition table with tableSize slots.
func (s *Solver) Init(tableSize uint64) error {
	tt, err := NewTranspositionTable(tableSize)
	if err != nil {
		return err
	}
	s.ttable = tt
	s.transpositionTableOptim = true
	s.firstWinOptim = false
	return nil
}

// Solve returns the ply score of pos for the side to move.
func (s *Solver) Solve(ctx context.Context, pos board.Position) (int, error) {
	if s.ttable == nil {
		return 0, ErrNotInitialized
	}
	s.nodes.Store(0)
	if v, done := rootScore(pos); done {
		if s.firstWinOptim {
			v = sign(v)
		}
		return v, nil
	}

	tstart := time.Now()
	var score int
	var err error
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		score, err = s.solveWithTicker(ctx, pos)
	} else {
		score, err = s.iterate(ctx, pos)
	}
	if err != nil {
		return 0, err
	}

	stats := s.ttable.Stats()
	log.Debug().
		Int("plies", pos.Plies()).
		Int("score", score).
		Uint64("nodes", s.nodes.Load()).
		Uint64("ttable-created", stats.Created).
		Uint64("ttable-lookups", stats.Lookups).
		Uint64("ttable-hits", stats.Hits).
		Uint64("ttable-t2collisions", stats.T2Collisions).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")
	return score, nil
}

// rootScore settles positions that need no search: a finished game, a full
// board, or a win with the next stone.
func rootScore(pos board.Position) (int, bool) {
	switch {
	case pos.OpponentWon():
		return lostScore(pos), true
	case pos.Full():
		return 0, true
	case pos.CanWinNext():
		return winScore(pos), true
	}
	return 0, false
}

// iterate narrows [min, max] with null-window probes until it closes.
func (s *Solver) iterate(ctx context.Context, pos board.Position) (int, error) {
	min := -(board.Area - 1 - pos.Plies())
	max := board.Area - 2 - pos.Plies()
	if s.firstWinOptim {
		min, max = -1, 1
	}
	if s.logStream != nil {
		fmt.Fprintf(s.logStream, "- key: %d\n  probes:\n", pos.Key())
	}
	for min < max {
		med := min + (max-min)/2
		// (min+max)/2 would keep probing inside [-1, 0]; lean the probe
		// away from zero instead.
		if med >= 0 && med < max/2 {
			med = max / 2
		} else if med <= 0 && med > min/2 {
			med = min / 2
		}
		r, err := s.negamax(ctx, pos, med, med+1)
		if err != nil {
			return 0, err
		}
		if r <= med {
			max = r
		} else {
			min = r
		}
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  - med: %d\n    result: %d\n    window: [%d, %d]\n", med, r, min, max)
		}
	}
	if s.firstWinOptim {
		return sign(min), nil
	}
	return min, nil
}

// solveWithTicker runs the search and logs nodes per second while it runs.
func (s *Solver) solveWithTicker(ctx context.Context, pos board.Position) (int, error) {
	g := &errgroup.Group{}
	done := make(chan struct{})

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	score, err := s.iterate(ctx, pos)
	close(done)
	g.Wait()
	return score, err
}

// FullWindow searches pos with an unbounded window in a single negamax call.
// It agrees with Solve and exists to check that it does. It always computes
// the exact score, whatever SetFirstWinOptim says.
func (s *Solver) FullWindow(ctx context.Context, pos board.Position) (int, error) {
	if s.ttable == nil {
		return 0, ErrNotInitialized
	}
	s.nodes.Store(0)
	if v, done := rootScore(pos); done {
		return v, nil
	}
	return s.negamax(ctx, pos, MinScore-1, MaxScore+1)
}

// Reset empties the transposition table. Entries stay valid across solves,
// so this is only needed to measure a solve from a cold table.
func (s *Solver) Reset() {
	if s.ttable != nil {
		s.ttable.Reset()
	}
}

// Nodes is the number of positions searched by the last call.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) SetFirstWinOptim(w bool) {
	s.firstWinOptim = w
}

func (s *Solver) FirstWinOptim() bool {
	return s.firstWinOptim
}

// SetLogStream makes Solve write its probes as YAML to w. nil turns it off.
func (s *Solver) SetLogStream(w io.Writer) {
	s.logStream = w
}

func (s *Solver) TTable() *TranspositionTable {
	return s.ttable
}

func (s *Solver) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
}
