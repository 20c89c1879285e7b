package board

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

func seededRNG() *frand.RNG {
	seed := make([]byte, 32)
	copy(seed, "fourply-board-tests")
	return frand.NewCustom(seed, 1024, 12)
}

// randomPosition plays up to n random moves that never complete four.
func randomPosition(rng *frand.RNG, n int) (Position, string) {
	p := NewPosition()
	seq := ""
	for p.Plies() < n {
		var cols []int
		for col := 0; col < Width; col++ {
			if p.CanPlay(col) && !p.IsWinningMove(col) {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			break
		}
		col := cols[rng.Intn(len(cols))]
		p.Play(col)
		seq += ColumnString(col)
	}
	return p, seq
}

func TestMasks(t *testing.T) {
	is := is.New(t)
	is.Equal(BottomMask.Count(), Width)
	is.Equal(BoardMask.Count(), Area)
	for col := 0; col < Width; col++ {
		is.Equal(ColumnMask(col)&BottomMask, BottomMaskCol(col))
		is.True(ColumnMask(col)&TopMaskCol(col) != 0)
		is.Equal(BottomMaskCol(col).Column(), col)
	}
	is.Equal(Bitboard(0).Column(), -1)
}

func TestLegalEmptyBoard(t *testing.T) {
	is := is.New(t)
	p := NewPosition()
	is.Equal(p.Legal(), BottomMask)
	is.Equal(p.Key(), uint64(0))
	is.Equal(p.WinningMoves(), Bitboard(0))
	is.Equal(p.NonLosingMoves(), BottomMask)
}

func TestFullColumnNotLegal(t *testing.T) {
	is := is.New(t)
	p, err := FromMoveSequence("444444")
	is.NoErr(err)
	is.True(!p.CanPlay(3))
	is.Equal(p.Legal()&ColumnMask(3), Bitboard(0))
	is.Equal(p.Legal().Count(), Width-1)
}

func TestPlayIntoFullColumnPanics(t *testing.T) {
	is := is.New(t)
	p, err := FromMoveSequence("111111")
	is.NoErr(err)
	defer func() {
		is.True(recover() != nil)
	}()
	p.Play(0)
}

func TestFromMoveSequenceMatchesPlay(t *testing.T) {
	is := is.New(t)
	rng := seededRNG()
	for i := 0; i < 200; i++ {
		want, seq := randomPosition(rng, rng.Intn(Area))
		got, err := FromMoveSequence(seq)
		is.NoErr(err)
		is.Equal(got, want)
		is.Equal(got.Current(), want.Current())
		is.Equal(got.All(), want.All())
		is.Equal(got.Plies(), len(seq))
	}
}

func TestFromMoveSequenceErrors(t *testing.T) {
	is := is.New(t)
	type tc struct {
		seq string
		err error
	}
	cases := []tc{
		{"8", ErrInvalidColumn},
		{"0", ErrInvalidColumn},
		{"44a", ErrInvalidColumn},
		{"1111111", ErrColumnFull},
		{"44556671", ErrGameOver},
	}
	for _, c := range cases {
		_, err := FromMoveSequence(c.seq)
		is.True(errors.Is(err, c.err))
	}
	// the winning move itself is accepted.
	p, err := FromMoveSequence("4455667")
	is.NoErr(err)
	is.True(p.OpponentWon())
}

func TestInvariants(t *testing.T) {
	is := is.New(t)
	rng := seededRNG()
	for i := 0; i < 500; i++ {
		p, _ := randomPosition(rng, rng.Intn(Area+1))
		is.Equal(p.Current()&^p.All(), Bitboard(0))
		is.Equal(p.All().Count(), p.Plies())
		is.Equal(p.All()&^BoardMask, Bitboard(0))
		// winning moves are always legal
		is.Equal(p.WinningMoves()&^p.Legal(), Bitboard(0))
		is.Equal(p.NonLosingMoves()&^p.Legal(), Bitboard(0))
		// one legal cell per open column
		open := 0
		for col := 0; col < Width; col++ {
			if p.CanPlay(col) {
				open++
			}
		}
		is.Equal(p.Legal().Count(), open)
	}
}

func TestWinningMoves(t *testing.T) {
	is := is.New(t)
	p, err := FromMoveSequence("445566")
	is.NoErr(err)
	is.Equal(p.WinningMoves(), Cell(2, 0)|Cell(6, 0))
	is.True(p.IsWinningMove(2))
	is.True(p.IsWinningMove(6))
	is.True(!p.IsWinningMove(3))
	is.True(p.CanWinNext())
	is.True(!p.OpponentWon())
}

func TestNonLosingMovesDoubleThreat(t *testing.T) {
	is := is.New(t)
	// the first player has an open three on the bottom row.
	p, err := FromMoveSequence("33445")
	is.NoErr(err)
	is.True(!p.CanWinNext())
	is.Equal(p.NonLosingMoves(), Bitboard(0))
}

func TestNonLosingMovesSingleThreat(t *testing.T) {
	is := is.New(t)
	p, err := FromMoveSequence("11223")
	is.NoErr(err)
	is.Equal(p.NonLosingMoves(), Cell(3, 0))
}

func TestNonLosingMovesAvoidsCellBelowThreat(t *testing.T) {
	is := is.New(t)
	// the first player threatens (3,1) along row 1; the cell (3,0) under it
	// must not be filled by the second player.
	p, err := FromMoveSequence("6557716")
	is.NoErr(err)
	is.Equal(p.OpponentThreatCount(), 1)
	is.Equal(p.NonLosingMoves(), p.Legal()&^Cell(3, 0))
}

func TestNonLosingMovesNonEmptyWithAtMostOneThreat(t *testing.T) {
	is := is.New(t)
	rng := seededRNG()
	for i := 0; i < 500; i++ {
		p, _ := randomPosition(rng, rng.Intn(Area-2))
		if p.CanWinNext() || p.Full() {
			continue
		}
		opp := Threats(p.Opponent()) & p.Legal() &^ p.All()
		if opp.Count() >= 2 {
			is.Equal(p.NonLosingMoves(), Bitboard(0))
			continue
		}
		nl := p.NonLosingMoves()
		if nl == 0 {
			// every legal move must then hand the opponent a win.
			for col := 0; col < Width; col++ {
				if !p.CanPlay(col) {
					continue
				}
				q := p
				q.Play(col)
				is.True(q.CanWinNext())
			}
		}
		// no non-losing move lets the opponent win at once.
		for col := 0; col < Width; col++ {
			if nl&ColumnMask(col) == 0 {
				continue
			}
			q := p
			q.Play(col)
			is.True(!q.CanWinNext())
		}
	}
}

func TestThreatsIncludeGuardCells(t *testing.T) {
	is := is.New(t)
	stack := Cell(0, 3) | Cell(0, 4) | Cell(0, 5)
	is.Equal(Threats(stack), Bitboard(1)<<Height)
	is.Equal(Threats(stack)&BoardMask, Bitboard(0))
}

func TestThreatShapes(t *testing.T) {
	is := is.New(t)
	// x.xx on row 2
	mask := Cell(1, 2) | Cell(3, 2) | Cell(4, 2)
	is.True(Threats(mask)&Cell(2, 2) != 0)
	// diagonal going up to the right with the gap at the end
	mask = Cell(0, 0) | Cell(1, 1) | Cell(2, 2)
	is.True(Threats(mask)&Cell(3, 3) != 0)
	// diagonal going down to the right, gap at the start
	mask = Cell(4, 2) | Cell(5, 1) | Cell(6, 0)
	is.True(Threats(mask)&Cell(3, 3) != 0)
}

func TestMovePriority(t *testing.T) {
	is := is.New(t)
	p, err := FromMoveSequence("4151")
	is.NoErr(err)
	is.Equal(p.MovePriority(Cell(5, 0)), 2)
	is.Equal(NewPosition().MovePriority(Cell(3, 0)), 0)
}

func TestOpponentWon(t *testing.T) {
	is := is.New(t)
	type tc struct {
		seq string
		won bool
	}
	cases := []tc{
		{"", false},
		{"445566", false},
		{"4455667", true},
		// vertical
		{"1212121", true},
		// diagonal
		{"12233434474", true},
	}
	for _, c := range cases {
		p, err := FromMoveSequence(c.seq)
		is.NoErr(err)
		is.Equal(p.OpponentWon(), c.won)
	}
}

func TestMirror(t *testing.T) {
	is := is.New(t)
	rng := seededRNG()
	for i := 0; i < 100; i++ {
		p, seq := randomPosition(rng, rng.Intn(Area))
		m, err := FromMoveSequence(MirrorSequence(seq))
		is.NoErr(err)
		is.Equal(p.Mirror(), m)
		is.Equal(m.Mirror(), p)
	}
}

func TestDisplay(t *testing.T) {
	is := is.New(t)
	p, err := FromMoveSequence("44")
	is.NoErr(err)
	is.Equal(p.ToDisplayText(),
		"0000000\n"+
			"0000000\n"+
			"0000000\n"+
			"0000000\n"+
			"0002000\n"+
			"0001000\n")
}

func BenchmarkNonLosingMoves(b *testing.B) {
	p, _ := FromMoveSequence("4453337")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.NonLosingMoves()
	}
}
