package negamax

import (
	"context"

	"github.com/fourply/fourply/board"
	"github.com/fourply/fourply/move"
)

// The search only ever sees positions where the side to move cannot win at
// once: Solve checks the root, and children come from NonLosingMoves.
//
// negamax, as in
//
//	function negamax(node, α, β) is
//	    foreach child in orderMoves(node) do
//	        value := −negamax(child, −β, −α)
//	        if value ≥ β then return value (* cut-off *)
//	        α := max(α, value)
//	    return α

// ctxCheckMask sets how often (in nodes) the context is polled.
const ctxCheckMask = 1<<12 - 1

// columnOrder explores the center first; central columns take part in more
// alignments.
var columnOrder [board.Width]int

func init() {
	for i := range columnOrder {
		columnOrder[i] = board.Width/2 + (2*(i%2)-1)*((i+1)/2)
	}
}

func (s *Solver) negamax(ctx context.Context, pos board.Position, α, β int) (int, error) {
	if s.nodes.Add(1)&ctxCheckMask == 0 && ctx.Err() != nil {
		return 0, ctx.Err()
	}

	next := pos.NonLosingMoves()
	if next == 0 {
		// the opponent wins with its next stone.
		return -(board.Area - 1 - pos.Plies()), nil
	}
	if pos.Plies() >= board.Area-2 {
		return 0, nil
	}

	// we cannot lose before the opponent's second stone from now, nor win
	// before our own second stone.
	lo := -(board.Area - 3 - pos.Plies())
	if α < lo {
		α = lo
		if α >= β {
			return α, nil
		}
	}
	hi := board.Area - 2 - pos.Plies()
	if β > hi {
		β = hi
		if α >= β {
			return β, nil
		}
	}

	key := pos.Key()
	if s.transpositionTableOptim {
		ttEntry := s.ttable.lookup(key)
		if ttEntry.valid() {
			score := ttEntry.score()
			if ttEntry.flag() == TTLower {
				if score > α {
					α = score
					if α >= β {
						return α, nil
					}
				}
			} else if score < β {
				β = score
				if α >= β {
					return β, nil
				}
			}
		}
	}

	// add the least preferred column first so that ties come out center first.
	var moves move.Sorter
	for i := board.Width - 1; i >= 0; i-- {
		if m := next & board.ColumnMask(columnOrder[i]); m != 0 {
			moves.Add(m, pos.MovePriority(m))
		}
	}

	for m := moves.Next(); m != 0; m = moves.Next() {
		child := pos
		child.PlayMove(m)
		value, err := s.negamax(ctx, child, -β, -α)
		if err != nil {
			return 0, err
		}
		value = -value
		if value >= β {
			if s.transpositionTableOptim {
				s.ttable.store(key, value, TTLower)
			}
			return value, nil // beta cut-off
		}
		if value > α {
			α = value
		}
	}
	if s.transpositionTableOptim {
		s.ttable.store(key, α, TTUpper)
	}
	return α, nil
}
