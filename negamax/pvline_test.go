package negamax

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/fourply/fourply/board"
)

func TestPrincipalVariationImmediateWin(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t, TestTableSize)
	pv, err := s.PrincipalVariation(context.Background(), mustPosition(t, "445566"), 10)
	is.NoErr(err)
	is.Equal(pv.Score, 36)
	is.Equal(pv.Columns, []int{2})
	is.Equal(pv.Sequence(), "3")
	is.Equal(pv.String(), "PV; val 36\n1: 3\n")
	is.Equal(pv.NLBString(), "PV; val 36; 1: 3; ")

	pv.Clear()
	is.Equal(len(pv.Columns), 0)
}

func TestPrincipalVariationGameOver(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t, TestTableSize)
	pv, err := s.PrincipalVariation(context.Background(), mustPosition(t, "4455667"), 10)
	is.NoErr(err)
	is.Equal(pv.Score, -36)
	is.Equal(len(pv.Columns), 0)
}

// Played out in full, a principal variation ends with the winning stone the
// score promises, or in a full board for a draw.
func TestPrincipalVariationReachesScore(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t, TestTableSize)
	rng := seededRNG("pv")
	for i := 0; i < 15; i++ {
		p, seq := randomPosition(rng, 30+rng.Intn(board.Area-30))
		if p.Full() {
			continue
		}
		pv, err := s.PrincipalVariation(context.Background(), p, board.Area)
		is.NoErr(err)
		end, err := board.FromMoveSequence(seq + pv.Sequence())
		is.NoErr(err)
		switch {
		case pv.Score == 0:
			is.True(end.Full())
			is.True(!end.OpponentWon())
		default:
			is.True(end.OpponentWon())
			is.Equal(end.Plies(), board.Area+1-max(pv.Score, -pv.Score))
			// the winner is the side to move in p exactly when the score
			// is positive
			is.Equal((end.Plies()-p.Plies())%2 == 1, pv.Score > 0)
		}
	}
}

func TestPrincipalVariationMaxLen(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t, TestTableSize)
	p, _ := randomPosition(seededRNG("pv-maxlen"), 30)
	pv, err := s.PrincipalVariation(context.Background(), p, 2)
	is.NoErr(err)
	is.True(len(pv.Columns) <= 2)
}
