// Package bench solves a file of positions with known values and reports
// timing, node counts and any position whose score does not match.
package bench

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fourply/fourply/board"
)

var ErrMalformedLine = errors.New("malformed test line")

// Case is one test line: a move sequence and the expected move score for the
// side to move after it.
type Case struct {
	Line     int
	Moves    string
	Expected int
}

// ParseCases reads lines of the form "<moves> <expected>". Blank lines and
// lines starting with # are skipped. Every move sequence is checked here so
// that errors carry the line number.
func ParseCases(r io.Reader) ([]Case, error) {
	var cases []Case
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %w: want 2 fields, got %d", lineNo, ErrMalformedLine, len(fields))
		}
		expected, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", lineNo, ErrMalformedLine, err)
		}
		if _, err := board.FromMoveSequence(fields[0]); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cases = append(cases, Case{Line: lineNo, Moves: fields[0], Expected: expected})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}
