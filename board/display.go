package board

import "strings"

// ToDisplayText draws the board top row first: '1' for the side to move,
// '2' for the other player and '0' for an empty cell.
func (p Position) ToDisplayText() string {
	var sb strings.Builder
	for row := Height - 1; row >= 0; row-- {
		for col := 0; col < Width; col++ {
			c := Cell(col, row)
			switch {
			case p.current&c != 0:
				sb.WriteByte('1')
			case p.all&c != 0:
				sb.WriteByte('2')
			default:
				sb.WriteByte('0')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String renders a bitboard as a grid of 'X' and '-', useful in test failures.
func (b Bitboard) String() string {
	var sb strings.Builder
	for row := Height; row >= 0; row-- {
		for col := 0; col < Width; col++ {
			if b&Cell(col, row) != 0 {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('-')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
