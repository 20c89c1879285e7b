package board

// Position is a Connect-Four board as two masks: the stones of the player
// about to move, and the stones of both players. It is a value type; the
// search copies it for every child instead of undoing moves.
type Position struct {
	current Bitboard
	all     Bitboard
	plies   int
}

// NewPosition returns the empty board.
func NewPosition() Position {
	return Position{}
}

func (p Position) Current() Bitboard { return p.current }
func (p Position) All() Bitboard     { return p.all }

// Opponent returns the stones of the player who moved last.
func (p Position) Opponent() Bitboard { return p.current ^ p.all }

// Plies is the number of stones on the board.
func (p Position) Plies() int { return p.plies }

// Full reports whether every cell is occupied.
func (p Position) Full() bool { return p.plies == Area }

// Key uniquely identifies the position in 49 bits. The addition never carries
// across a column because the guard bit absorbs it.
func (p Position) Key() uint64 {
	return uint64(p.current + p.all)
}

// Legal returns the lowest empty cell of every column that is not full.
func (p Position) Legal() Bitboard {
	return (p.all + BottomMask) & BoardMask
}

// CanPlay reports whether col is on the board and not full.
func (p Position) CanPlay(col int) bool {
	return col >= 0 && col < Width && p.all&TopMaskCol(col) == 0
}

// Play drops a stone for the side to move into col. Playing into a full
// column is a programmer error and panics.
func (p *Position) Play(col int) {
	if !p.CanPlay(col) {
		panic("board: play into full or missing column")
	}
	p.PlayMove((p.all + BottomMaskCol(col)) & ColumnMask(col))
}

// PlayMove plays a single-bit move taken from Legal().
func (p *Position) PlayMove(m Bitboard) {
	p.current ^= p.all
	p.all |= m
	p.plies++
}

// WinningMoves returns the legal cells that complete four-in-a-row for the
// side to move.
func (p Position) WinningMoves() Bitboard {
	return Threats(p.current) & p.Legal()
}

// IsWinningMove reports whether playing col wins immediately.
func (p Position) IsWinningMove(col int) bool {
	return p.WinningMoves()&ColumnMask(col) != 0
}

// CanWinNext reports whether the side to move has an immediate win.
func (p Position) CanWinNext() bool {
	return p.WinningMoves() != 0
}

// NonLosingMoves returns the legal moves after which the opponent has no
// immediate win. It is empty when the opponent holds two or more playable
// threats. It assumes the side to move has no winning move itself.
func (p Position) NonLosingMoves() Bitboard {
	oppThreats := Threats(p.Opponent()) & BoardMask &^ p.all
	possible := p.Legal()
	forced := possible & oppThreats
	if forced != 0 {
		if forced&(forced-1) != 0 {
			return 0
		}
		possible = forced
	}
	// never fill the cell right under an opponent threat.
	return possible &^ (oppThreats >> 1)
}

// MovePriority counts the empty cells that would become threats for the side
// to move after playing m. Used for move ordering only.
func (p Position) MovePriority(m Bitboard) int {
	return (Threats(p.current|m) & BoardMask &^ p.all).Count()
}

// OpponentThreatCount counts the empty cells that would complete four for
// the player who moved last, playable or not.
func (p Position) OpponentThreatCount() int {
	return (Threats(p.Opponent()) & BoardMask &^ p.all).Count()
}

// OpponentWon reports whether the player who moved last has four in a row.
func (p Position) OpponentWon() bool {
	return hasFour(p.Opponent())
}

// Mirror reflects the position left to right.
func (p Position) Mirror() Position {
	return Position{
		current: mirror(p.current),
		all:     mirror(p.all),
		plies:   p.plies,
	}
}

func mirror(b Bitboard) Bitboard {
	var m Bitboard
	for col := 0; col < Width; col++ {
		shift := col * stride
		colBits := (b >> shift) & (1<<stride - 1)
		m |= colBits << ((Width - 1 - col) * stride)
	}
	return m
}
