package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidColumn = errors.New("invalid column")
	ErrColumnFull    = errors.New("column is full")
	ErrGameOver      = errors.New("game is already over")
)

// FromMoveSequence plays one move per character of seq. Columns are numbered
// from '1' on the left, the convention used by the standard test sets. The
// last move may complete four-in-a-row; any move after that is rejected.
func FromMoveSequence(seq string) (Position, error) {
	p := NewPosition()
	for i, c := range seq {
		col := int(c - '1')
		if col < 0 || col >= Width {
			return Position{}, fmt.Errorf("%w: %q at index %d", ErrInvalidColumn, c, i)
		}
		if p.OpponentWon() {
			return Position{}, fmt.Errorf("%w: move %d", ErrGameOver, i+1)
		}
		if !p.CanPlay(col) {
			return Position{}, fmt.Errorf("%w: column %d at index %d", ErrColumnFull, col+1, i)
		}
		p.Play(col)
	}
	return p, nil
}

// ColumnString renders a 0-indexed column the way FromMoveSequence reads it.
func ColumnString(col int) string {
	return string(rune('1' + col))
}

// MirrorSequence maps every column of a move sequence to its reflection.
// Characters that are not columns are kept as they are.
func MirrorSequence(seq string) string {
	var sb strings.Builder
	for _, c := range seq {
		if c >= '1' && c < '1'+Width {
			c = '1' + rune(Width-1) - (c - '1')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
