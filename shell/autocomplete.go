package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter completes command names, options and option values.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"solve":   {Options: []string{"-weak", "-maxtime", "-fullwindow"}},
	"analyze": {Options: []string{"-maxtime"}},
	"pv":      {Options: []string{"-maxlen", "-maxtime"}},
	"bench":   {Options: []string{"-out", "-threads", "-summary", "-maxtime"}},
	"set":     {Args: settable},
	"help":    {Args: []string{"solve", "analyze", "pv", "bench", "set", "script", "random"}},
}

var commandNames = []string{
	"new", "load", "play", "undo", "show", "mirror", "random", "solve",
	"analyze", "pv", "bench", "book", "set", "script", "help", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch {
		case lastCompleteField == "-weak" || lastCompleteField == "-fullwindow":
			completions = boolValues
		case cmdName == "set" && len(fields) >= 2 && lastCompleteField == fields[1] &&
			(fields[1] == "weak" || fields[1] == "disable-tt" || fields[1] == "debug"):
			completions = boolValues
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
