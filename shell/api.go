package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"lukechampine.com/frand"

	"github.com/fourply/fourply/bench"
	"github.com/fourply/fourply/board"
	"github.com/fourply/fourply/config"
	"github.com/fourply/fourply/negamax"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

var printer = message.NewPrinter(language.English)

func (sc *ShellController) setPosition(moves string) error {
	pos, err := board.FromMoveSequence(moves)
	if err != nil {
		return err
	}
	sc.moves = moves
	sc.pos = pos
	return nil
}

func (sc *ShellController) positionText() string {
	var sb strings.Builder
	sb.WriteString(sc.pos.ToDisplayText())
	sb.WriteString("1234567\n")
	fmt.Fprintf(&sb, "moves: %q, plies: %d", sc.moves, sc.pos.Plies())
	switch {
	case sc.pos.OpponentWon():
		sb.WriteString(", game over")
	case sc.pos.Full():
		sb.WriteString(", board full")
	default:
		fmt.Fprintf(&sb, ", player %d to move", sc.pos.Plies()%2+1)
	}
	return sb.String()
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.moves = ""
	sc.pos = board.NewPosition()
	return msg(sc.positionText()), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	moves := ""
	if len(cmd.args) > 0 {
		moves = cmd.args[0]
	}
	if err := sc.setPosition(moves); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("play needs a column from 1 to 7")
	}
	if err := sc.setPosition(sc.moves + strings.Join(cmd.args, "")); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.moves == "" {
		return nil, errors.New("nothing to undo")
	}
	if err := sc.setPosition(sc.moves[:len(sc.moves)-1]); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.positionText()), nil
}

func (sc *ShellController) mirror(cmd *shellcmd) (*Response, error) {
	if err := sc.setPosition(board.MirrorSequence(sc.moves)); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

// random plays n random moves that do not complete four.
func (sc *ShellController) random(cmd *shellcmd) (*Response, error) {
	n := 1
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	moves := sc.moves
	pos := sc.pos
	for i := 0; i < n && !pos.Full(); i++ {
		cols := lo.Filter([]int{0, 1, 2, 3, 4, 5, 6}, func(col int, _ int) bool {
			return pos.CanPlay(col) && !pos.IsWinningMove(col)
		})
		if len(cols) == 0 {
			break
		}
		col := cols[frand.Intn(len(cols))]
		pos.Play(col)
		moves += board.ColumnString(col)
	}
	if err := sc.setPosition(moves); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

// solveContext returns a context bounded by the -maxtime option, in seconds.
func (sc *ShellController) solveContext(cmd *shellcmd) (context.Context, context.CancelFunc, error) {
	maxtime, err := cmd.optInt("maxtime", 0)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	if maxtime > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(maxtime)*time.Second)
	}
	sc.mu.Lock()
	sc.solveCancel = cancel
	sc.mu.Unlock()
	return ctx, cancel, nil
}

func describeScore(score int, weak bool) string {
	if weak {
		return negamax.Outcome(score)
	}
	if score == 0 {
		return "draw"
	}
	mv := negamax.MoveScore(score)
	// the deciding stone is the (Area+1-|score|)-th of the game
	stone := board.Area + 1 - max(score, -score)
	if score > 0 {
		return fmt.Sprintf("win with stone %d (move score %d)", stone, mv)
	}
	return fmt.Sprintf("loss to stone %d (move score %d)", stone, mv)
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	ctx, cancel, err := sc.solveContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()

	weak := sc.cfg.GetBool(config.ConfigWeak)
	if _, ok := cmd.options["weak"]; ok {
		weak = cmd.optBool("weak")
	}
	prev := sc.solver.FirstWinOptim()
	sc.solver.SetFirstWinOptim(weak)
	defer sc.solver.SetFirstWinOptim(prev)

	fullWindow := cmd.optBool("fullwindow")
	exact := fullWindow || !weak
	if exact && sc.book != nil {
		v, ok, err := sc.book.Get(ctx, sc.pos)
		if err != nil {
			log.Err(err).Msg("book-lookup")
		} else if ok {
			sc.lastScore = v
			return msg(fmt.Sprintf("score: %d, %s\nfrom book", v, describeScore(v, false))), nil
		}
	}

	tstart := time.Now()
	var score int
	if fullWindow {
		score, err = sc.solver.FullWindow(ctx, sc.pos)
		weak = false
	} else {
		score, err = sc.solver.Solve(ctx, sc.pos)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.New("solve ran out of time")
		}
		return nil, err
	}
	elapsed := time.Since(tstart)
	sc.lastScore = score
	if exact && sc.book != nil {
		if err := sc.book.Put(ctx, sc.pos, score); err != nil {
			log.Err(err).Msg("book-store")
		}
	}
	log.Debug().Int("score", score).Str("moves", sc.moves).Msg("shell-solve")
	return msg(printer.Sprintf("score: %d, %s\nnodes: %d, time: %.3fs",
		score, describeScore(score, weak), sc.solver.Nodes(), elapsed.Seconds())), nil
}

func (sc *ShellController) bookInfo(cmd *shellcmd) (*Response, error) {
	if sc.book == nil {
		return nil, errors.New("no book open; set book-file in the config or with --book-file")
	}
	n, err := sc.book.Len(context.Background())
	if err != nil {
		return nil, err
	}
	return msg(printer.Sprintf("book: %d positions", n)), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	ctx, cancel, err := sc.solveContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()

	scores, err := sc.solver.Analyze(ctx, sc.pos)
	if err != nil {
		return nil, err
	}
	cells := lo.Map(scores, func(s negamax.ColumnScore, _ int) string {
		if !s.Playable {
			return fmt.Sprintf("%4s", "-")
		}
		return fmt.Sprintf("%4d", s.Score)
	})
	var sb strings.Builder
	for col := range scores {
		fmt.Fprintf(&sb, "%4d", col+1)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Join(cells, ""))
	if best, ok := BestColumnString(scores); ok {
		sb.WriteString("\nbest: " + best)
	}
	return msg(sb.String()), nil
}

// pv prints the line both sides play under perfect play.
func (sc *ShellController) pv(cmd *shellcmd) (*Response, error) {
	maxlen, err := cmd.optInt("maxlen", board.Area)
	if err != nil {
		return nil, err
	}
	if maxlen < 0 {
		return nil, errors.New("maxlen must not be negative")
	}
	ctx, cancel, err := sc.solveContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()

	// a line read off signs alone need not end on the promised stone
	prev := sc.solver.FirstWinOptim()
	sc.solver.SetFirstWinOptim(false)
	defer sc.solver.SetFirstWinOptim(prev)

	line, err := sc.solver.PrincipalVariation(ctx, sc.pos, maxlen)
	if err != nil {
		return nil, err
	}
	sc.lastScore = line.Score
	log.Debug().Str("pv", line.NLBString()).Msg("shell-pv")
	return msg(fmt.Sprintf("score: %d, %s\nline: %s", line.Score,
		describeScore(line.Score, false), line.Sequence())), nil
}

// BestColumnString names the best column the way moves are typed.
func BestColumnString(scores []negamax.ColumnScore) (string, bool) {
	best, ok := negamax.BestColumn(scores)
	if !ok {
		return "", false
	}
	return board.ColumnString(best), true
}

func (sc *ShellController) bench(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("bench needs a test file")
	}
	f, err := os.Open(cmd.args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cases, err := bench.ParseCases(f)
	if err != nil {
		return nil, err
	}

	threads, err := cmd.optInt("threads", sc.cfg.GetInt(config.ConfigBenchThreads))
	if err != nil {
		return nil, err
	}
	runner := &bench.Runner{
		Threads:   threads,
		TableSize: sc.cfg.GetUint64(config.ConfigTableSize),
		Weak:      sc.cfg.GetBool(config.ConfigWeak),
		DisableTT: sc.cfg.GetBool(config.ConfigDisableTT),
		Book:      sc.book,
	}

	var csvOut *os.File
	if out := cmd.options["out"]; out != "" {
		csvOut, err = os.Create(out)
		if err != nil {
			return nil, err
		}
		defer csvOut.Close()
	}

	ctx, cancel, err := sc.solveContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()
	var sum *bench.Summary
	if csvOut != nil {
		sum, err = runner.Run(ctx, cases, csvOut)
	} else {
		sum, err = runner.Run(ctx, cases, nil)
	}
	if err != nil {
		return nil, err
	}

	if path := cmd.options["summary"]; path != "" {
		sf, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		defer sf.Close()
		if err := sum.WriteYAML(sf); err != nil {
			return nil, err
		}
	}
	var sb strings.Builder
	sb.WriteString(sum.String())
	if err := sum.Histogram(&sb); err != nil {
		return nil, err
	}
	return msg(sb.String()), nil
}

var settable = []string{
	config.ConfigDebug, config.ConfigTableSize, config.ConfigWeak,
	config.ConfigDisableTT, config.ConfigBenchThreads,
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		lines := lo.Map(settable, func(k string, _ int) string {
			return fmt.Sprintf("%s: %v", k, sc.cfg.Get(k))
		})
		return msg(strings.Join(lines, "\n")), nil
	}
	key := cmd.args[0]
	if !lo.Contains(settable, key) {
		return nil, fmt.Errorf("%s cannot be set; choose one of %s", key, strings.Join(settable, ", "))
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.cfg.Get(key))), nil
	}
	old := sc.cfg.Get(key)
	sc.cfg.Set(key, cmd.args[1])
	if err := sc.cfg.Validate(); err != nil {
		sc.cfg.Set(key, old)
		return nil, err
	}
	switch key {
	case config.ConfigDebug:
		if sc.cfg.GetBool(key) {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	case config.ConfigTableSize:
		if err := sc.initSolver(); err != nil {
			sc.cfg.Set(key, old)
			return nil, err
		}
	case config.ConfigWeak:
		sc.solver.SetFirstWinOptim(sc.cfg.GetBool(key))
	case config.ConfigDisableTT:
		sc.solver.SetTranspositionTableOptim(!sc.cfg.GetBool(key))
	}
	return msg(fmt.Sprintf("set %s to %v", key, sc.cfg.Get(key))), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb)
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	if sc.gitVersion != "" && len(cmd.args) == 0 {
		sb.WriteString("\nversion " + sc.gitVersion + "\n")
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}
