package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/fourply/fourply/board"
	"github.com/fourply/fourply/book"
	"github.com/fourply/fourply/config"
	"github.com/fourply/fourply/negamax"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errExit              = errors.New("exit requested")
)

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

func (c *shellcmd) optBool(key string) bool {
	return strings.ToLower(c.options[key]) == "true"
}

func (c *shellcmd) optInt(key string, def int) (int, error) {
	v, ok := c.options[key]
	if !ok {
		return def, nil
	}
	return strconv.Atoi(v)
}

// ShellController holds the current position and the solver the commands
// act on.
type ShellController struct {
	l   *readline.Instance
	out io.Writer

	cfg        *config.Config
	execPath   string
	gitVersion string

	solver *negamax.Solver
	book   *book.Book
	// moves is the sequence that reaches the current position; undo pops it.
	moves string
	pos   board.Position
	// lastScore is the result of the last successful solve.
	lastScore int

	mu          sync.Mutex
	solveCancel context.CancelFunc
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	sc := &ShellController{cfg: cfg, out: out, pos: board.NewPosition()}
	if err := sc.initSolver(); err != nil {
		return nil, err
	}
	if path := cfg.GetString(config.ConfigBookFile); path != "" {
		b, err := book.Open(context.Background(), path)
		if err != nil {
			return nil, err
		}
		sc.book = b
	}
	return sc, nil
}

// NewShellController sets up readline and a solver sized from cfg.
func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc, err := newController(cfg, os.Stderr)
	if err != nil {
		panic(err)
	}
	sc.execPath = execPath
	sc.gitVersion = gitVersion

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[34mfourply>\033[0m ",
		HistoryFile:     cfg.GetString(config.ConfigHistoryFile),
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc
}

func (sc *ShellController) initSolver() error {
	s := new(negamax.Solver)
	if err := s.Init(sc.cfg.GetUint64(config.ConfigTableSize)); err != nil {
		return err
	}
	s.SetFirstWinOptim(sc.cfg.GetBool(config.ConfigWeak))
	s.SetTranspositionTableOptim(!sc.cfg.GetBool(config.ConfigDisableTT))
	sc.solver = s
	return nil
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, positional args and
// "-key value" options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") && len(fields[i]) > 1 {
			if _, err := strconv.Atoi(fields[i]); err == nil {
				// a negative number is an argument
				args = append(args, fields[i])
				continue
			}
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[strings.TrimPrefix(fields[i], "-")] = fields[i+1]
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit":
		sig <- syscall.SIGINT
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "load":
		return sc.load(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "show":
		return sc.show(cmd)
	case "mirror":
		return sc.mirror(cmd)
	case "random":
		return sc.random(cmd)
	case "solve":
		return sc.solve(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "pv":
		return sc.pv(cmd)
	case "bench":
		return sc.bench(cmd)
	case "book":
		return sc.bookInfo(cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		return nil, fmt.Errorf("unknown command %q, try help", cmd.cmd)
	}
}

// Execute runs a single command line, as given on the command line of the
// binary.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		if !errors.Is(err, errExit) {
			sc.showError(err)
		}
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if errors.Is(err, errExit) {
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops a running solve and closes the book.
func (sc *ShellController) Cleanup() {
	sc.mu.Lock()
	if sc.solveCancel != nil {
		sc.solveCancel()
	}
	sc.mu.Unlock()
	if sc.book != nil {
		if err := sc.book.Close(); err != nil {
			log.Err(err).Msg("closing-book")
		}
	}
	log.Debug().Msg("shell-cleanup")
}
