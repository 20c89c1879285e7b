package negamax

import (
	"context"
	"fmt"
	"strings"

	"github.com/fourply/fourply/board"
)

// PVLine is a principal variation: the columns both sides play under
// perfect play, and the score of the position it starts from.
type PVLine struct {
	Columns []int
	Score   int
}

// Clear the principal variation line.
func (pv *PVLine) Clear() {
	pv.Columns = nil
	pv.Score = 0
}

// Sequence returns the line as a move string.
func (pv PVLine) Sequence() string {
	var sb strings.Builder
	for _, col := range pv.Columns {
		sb.WriteString(board.ColumnString(col))
	}
	return sb.String()
}

func (pv PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d\n", pv.Score)
	for i, col := range pv.Columns {
		fmt.Fprintf(&sb, "%d: %s\n", i+1, board.ColumnString(col))
	}
	return sb.String()
}

// NLBString is String without line breaks.
func (pv PVLine) NLBString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d; ", pv.Score)
	for i, col := range pv.Columns {
		fmt.Fprintf(&sb, "%d: %s; ", i+1, board.ColumnString(col))
	}
	return sb.String()
}

// PrincipalVariation follows the best column from pos until the game ends or
// maxLen moves have been played. Every step is a full Analyze, so the table
// should be large enough to keep the line's positions.
func (s *Solver) PrincipalVariation(ctx context.Context, pos board.Position, maxLen int) (PVLine, error) {
	var pv PVLine
	v, err := s.Solve(ctx, pos)
	if err != nil {
		return pv, err
	}
	pv.Score = v
	for len(pv.Columns) < maxLen && !pos.OpponentWon() && !pos.Full() {
		scores, err := s.Analyze(ctx, pos)
		if err != nil {
			return pv, err
		}
		col, ok := BestColumn(scores)
		if !ok {
			break
		}
		pv.Columns = append(pv.Columns, col)
		pos.Play(col)
	}
	return pv, nil
}
