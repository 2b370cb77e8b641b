package engine

import (
	"time"

	"lukechampine.com/frand"
)

// Decision is the telemetry returned with every chosen move.
type Decision struct {
	Column    int           `json:"column"`
	Score     int           `json:"score"`
	Depth     int           `json:"depth"`
	Nodes     uint64        `json:"nodes"`
	CacheHits uint64        `json:"cacheHits"`
	Elapsed   time.Duration `json:"elapsed"`
	Shortcut  bool          `json:"shortcut"` // immediate win, no search ran
}

// seedColumn picks a random legal column as the initial best candidate.
// The search comparisons are strict, so the seed never overrides a scored
// move; it only guarantees a legal answer before any child is evaluated.
func seedColumn(open []int) int {
	return open[frand.Intn(len(open))]
}

// ChooseMove is the public entry point: it returns the best column for the
// given side, consulting the immediate-win shortcut before falling back to
// dynamic-depth search. A full board returns ErrNoLegalMove, which the
// caller must treat as a draw rather than a failure.
func (e *Engine) ChooseMove(b *Board, side Piece) (Decision, error) {
	start := time.Now()

	open := b.OpenColumns()
	if len(open) == 0 {
		return Decision{Column: NoMove}, ErrNoLegalMove
	}

	// A column that wins outright needs no search. Equivalent to, but
	// cheaper than, a depth-1 search.
	if col, ok := e.immediateWin(b, side); ok {
		return Decision{
			Column:   col,
			Score:    winBase,
			Shortcut: true,
			Elapsed:  time.Since(start),
		}, nil
	}

	stats := &SearchStats{}
	depth := e.ChooseDepth(b)

	var col, score int
	if e.UseIterativeDeepening {
		col, score = e.ChooseMoveIterative(b, depth, side, stats)
	} else {
		col, score = e.minimax(b.Copy(), depth, -infinity, infinity, true, side, stats)
		stats.CompletedDepth = depth
	}
	if col == NoMove {
		// Open columns exist, so the search always finds one; guard anyway.
		col = seedColumn(open)
	}

	return Decision{
		Column:    col,
		Score:     score,
		Depth:     stats.CompletedDepth,
		Nodes:     stats.Nodes,
		CacheHits: stats.CacheHits,
		Elapsed:   time.Since(start),
	}, nil
}

// immediateWin scans for a column that completes four-in-a-row for the side
// to move, trying each open column on a scratch copy and undoing it.
func (e *Engine) immediateWin(b *Board, side Piece) (int, bool) {
	scratch := b.Copy()
	for _, col := range scratch.OpenColumns() {
		if _, err := scratch.Drop(col, side); err != nil {
			continue
		}
		won := HasFourInARow(scratch, side)
		scratch.RemoveTop(col)
		if won {
			return col, true
		}
	}
	return NoMove, false
}
