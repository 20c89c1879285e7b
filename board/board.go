package board

import "math/bits"

// Bitboard is a set of cells. Cell (col, row) is bit col*(Height+1)+row.
// Row Height of every column is a guard bit that is never occupied; it keeps
// horizontal and diagonal shifts from bleeding into the neighbouring column.
//
//	  6 13 20 27 34 41 48
//	 ---------------------
//	| 5 12 19 26 33 40 47 |
//	| 4 11 18 25 32 39 46 |
//	| 3 10 17 24 31 38 45 |
//	| 2  9 16 23 30 37 44 |
//	| 1  8 15 22 29 36 43 |
//	| 0  7 14 21 28 35 42 |
//	 ---------------------
type Bitboard uint64

const (
	Width  = 7
	Height = 6
	// Area is the number of playable cells.
	Area = Width * Height

	stride = Height + 1
)

const (
	// BottomMask has the lowest cell of every column set.
	BottomMask Bitboard = (1<<(stride*Width) - 1) / (1<<stride - 1)
	// BoardMask has every playable cell set, guard row excluded.
	BoardMask Bitboard = BottomMask * (1<<Height - 1)
)

// BottomMaskCol is the lowest cell of col.
func BottomMaskCol(col int) Bitboard {
	return 1 << (col * stride)
}

// TopMaskCol is the highest playable cell of col.
func TopMaskCol(col int) Bitboard {
	return 1 << (Height - 1 + col*stride)
}

// ColumnMask has every playable cell of col set.
func ColumnMask(col int) Bitboard {
	return (1<<Height - 1) << (col * stride)
}

// Cell is the single-bit mask for (col, row).
func Cell(col, row int) Bitboard {
	return 1 << (row + col*stride)
}

// Count returns the number of set cells.
func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}

// Column returns the column of the lowest set cell, or -1 for an empty board.
func (b Bitboard) Column() int {
	if b == 0 {
		return -1
	}
	return bits.TrailingZeros64(uint64(b)) / stride
}

// Threats returns every cell that would complete four-in-a-row for the stones
// in mask if it were filled. The result is not restricted to empty or playable
// cells and may contain guard cells; callers mask it as needed.
func Threats(mask Bitboard) Bitboard {
	// vertical: only the cell on top of three stacked stones.
	r := (mask & (mask << 1) & (mask << 2)) << 1

	for _, s := range [...]uint{stride, stride + 1, stride - 1} {
		pair := mask & (mask << s)
		r |= (pair & (mask << (2 * s))) << s       // xxx.
		r |= (pair & (mask << (2 * s))) >> (3 * s) // .xxx
		r |= (pair & (mask << (3 * s))) >> (2 * s) // x.xx
		r |= (mask & (pair << (2 * s))) >> s       // xx.x
	}
	return r
}

// hasFour reports whether mask contains four aligned stones.
func hasFour(mask Bitboard) bool {
	for _, s := range [...]uint{1, stride, stride + 1, stride - 1} {
		m := mask & (mask >> s)
		if m&(m>>(2*s)) != 0 {
			return true
		}
	}
	return false
}
