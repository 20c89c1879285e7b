package negamax

import (
	"context"
	"fmt"

	"github.com/fourply/fourply/board"
)

// ColumnScore is the ply score of dropping a stone into Column, from the
// point of view of the player making that move.
type ColumnScore struct {
	Column   int
	Playable bool
	Score    int
}

// Analyze scores every column of pos. Full columns come back with Playable
// false. Each playable column costs one full solve of the child position.
func (s *Solver) Analyze(ctx context.Context, pos board.Position) ([]ColumnScore, error) {
	if pos.OpponentWon() {
		return nil, fmt.Errorf("analyze: %w", board.ErrGameOver)
	}
	scores := make([]ColumnScore, board.Width)
	for col := 0; col < board.Width; col++ {
		scores[col].Column = col
		if !pos.CanPlay(col) {
			continue
		}
		scores[col].Playable = true
		if pos.IsWinningMove(col) {
			scores[col].Score = winScore(pos)
			if s.firstWinOptim {
				scores[col].Score = 1
			}
			continue
		}
		child := pos
		child.Play(col)
		v, err := s.Solve(ctx, child)
		if err != nil {
			return nil, err
		}
		scores[col].Score = -v
	}
	return scores, nil
}

// BestColumn picks the highest scoring playable column, preferring central
// columns on ties. It returns false when nothing is playable.
func BestColumn(scores []ColumnScore) (int, bool) {
	best, found := -1, false
	for _, col := range columnOrder {
		if col >= len(scores) || !scores[col].Playable {
			continue
		}
		if !found || scores[col].Score > scores[best].Score {
			best, found = col, true
		}
	}
	return best, found
}
