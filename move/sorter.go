package move

import "github.com/fourply/fourply/board"

type entry struct {
	move  board.Bitboard
	score int
}

// Sorter hands back moves in decreasing score order. It is an insertion
// sort over at most board.Width entries, which beats a general sort when the
// moves arrive nearly ordered (the search adds them worst column first).
// Among equal scores the move added last comes out first.
type Sorter struct {
	size    int
	entries [board.Width]entry
}

// Add inserts a move, keeping entries sorted by ascending score.
func (s *Sorter) Add(m board.Bitboard, score int) {
	pos := s.size
	s.size++
	for ; pos > 0 && s.entries[pos-1].score > score; pos-- {
		s.entries[pos] = s.entries[pos-1]
	}
	s.entries[pos] = entry{move: m, score: score}
}

// Next removes and returns the highest-scoring move, or 0 when none is left.
func (s *Sorter) Next() board.Bitboard {
	if s.size == 0 {
		return 0
	}
	s.size--
	return s.entries[s.size].move
}

func (s *Sorter) Len() int {
	return s.size
}

func (s *Sorter) Reset() {
	s.size = 0
}
