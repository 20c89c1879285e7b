package bench

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/fourply/fourply/board"
	"github.com/fourply/fourply/book"
	"github.com/fourply/fourply/negamax"
)

// Result is the outcome of solving one Case.
type Result struct {
	Case
	Micros int64
	Nodes  uint64
	// Score is the move score found, or -1/0/1 for a weak solve.
	Score int
	OK    bool
}

// Runner solves cases on Threads workers, each with its own solver and
// transposition table of TableSize slots.
type Runner struct {
	Threads   int
	TableSize uint64
	Weak      bool
	DisableTT bool
	// Book, when set, receives every exact score found.
	Book *book.Book
}

func (r *Runner) newSolver() (*negamax.Solver, error) {
	s := new(negamax.Solver)
	size := r.TableSize
	if size == 0 {
		size = negamax.DefaultTableSize
	}
	if err := s.Init(size); err != nil {
		return nil, err
	}
	s.SetFirstWinOptim(r.Weak)
	s.SetTranspositionTableOptim(!r.DisableTT)
	return s, nil
}

// Run solves every case and writes one CSV row per case to w, in input order.
// A score mismatch is reported in the summary, not as an error.
func (r *Runner) Run(ctx context.Context, cases []Case, w io.Writer) (*Summary, error) {
	threads := max(r.Threads, 1)
	solvers := make([]*negamax.Solver, threads)
	for t := range solvers {
		s, err := r.newSolver()
		if err != nil {
			return nil, err
		}
		solvers[t] = s
	}
	results := make([]Result, len(cases))
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range cases {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	tstart := time.Now()
	for t, solver := range solvers {
		g.Go(func() error {
			for i := range jobs {
				res, err := r.solveOne(gctx, solver, cases[i])
				if err != nil {
					return err
				}
				results[i] = res
			}
			log.Debug().Int("thread", t).Msg("bench-thread-exiting")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(tstart)

	if w != nil {
		if err := writeCSV(w, results); err != nil {
			return nil, err
		}
	}
	sum := summarize(results, elapsed)
	log.Info().
		Int("positions", sum.Positions).
		Int("mismatches", sum.Mismatches).
		Uint64("nodes", sum.TotalNodes).
		Float64("nps", sum.NodesPerSecond).
		Float64("time-elapsed-sec", elapsed.Seconds()).
		Msg("bench-finished")
	return sum, nil
}

func (r *Runner) solveOne(ctx context.Context, s *negamax.Solver, c Case) (Result, error) {
	pos, err := board.FromMoveSequence(c.Moves)
	if err != nil {
		return Result{}, err
	}
	t := time.Now()
	v, err := s.Solve(ctx, pos)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Case:   c,
		Micros: time.Since(t).Microseconds(),
		Nodes:  s.Nodes(),
	}
	if r.Weak {
		res.Score = v
		res.OK = v == sign(c.Expected)
	} else {
		res.Score = negamax.MoveScore(v)
		res.OK = res.Score == c.Expected
	}
	if r.Book != nil && !r.Weak {
		if err := r.Book.Put(ctx, pos, v); err != nil {
			return Result{}, err
		}
	}
	if !res.OK {
		log.Warn().Int("line", c.Line).Str("moves", c.Moves).
			Int("score", res.Score).Int("expected", c.Expected).
			Msg("bench-mismatch")
	}
	return res, nil
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func writeCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"moves", "microseconds", "nodes", "score", "expected", "ok"}); err != nil {
		return err
	}
	rows := lo.Map(results, func(r Result, _ int) []string {
		return []string{
			r.Moves,
			strconv.FormatInt(r.Micros, 10),
			strconv.FormatUint(r.Nodes, 10),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Expected),
			strconv.FormatBool(r.OK),
		}
	})
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
