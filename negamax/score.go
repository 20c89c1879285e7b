package negamax

import "github.com/fourply/fourply/board"

// Ply scores: a win for the side to move scores the number of empty cells
// left before its winning stone, so +1 is a win with the very last stone and
// faster wins score higher. Losses mirror that and 0 is a draw.
const (
	MinScore = -board.Area
	MaxScore = board.Area
)

// MoveScore turns a ply score into the score the standard test sets use:
// half of it, rounded away from zero.
func MoveScore(ply int) int {
	return ply/2 + ply%2
}

// winScore is the score of winning with the next stone.
func winScore(pos board.Position) int {
	return board.Area - pos.Plies()
}

// lostScore is the score when the player who just moved already has four.
func lostScore(pos board.Position) int {
	return -(board.Area + 1 - pos.Plies())
}

// Outcome names the sign of a score.
func Outcome(score int) string {
	switch {
	case score > 0:
		return "win"
	case score < 0:
		return "loss"
	}
	return "draw"
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
