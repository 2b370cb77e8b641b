package engine

import (
	"errors"
	"time"
)

// NoMove is returned as the column when a position has no legal move.
const NoMove = -1

// Sentinel score magnitudes for proven wins and losses. They dominate any
// heuristic value and are adjusted by remaining depth so that a faster win
// scores strictly higher than a slower one, and a slower loss scores
// strictly higher than a faster one.
const (
	winBase  = 1 << 30
	lossBase = -winBase
	infinity = 1 << 40
)

var ErrInvalidDepth = errors.New("search depth must be at least 1")

// SearchStats accumulates telemetry over one top-level decision. The engine
// exposes these as return values and never prints them itself.
type SearchStats struct {
	Nodes          uint64
	CacheHits      uint64
	CompletedDepth int
	Elapsed        time.Duration
}

// Engine performs depth-bounded minimax with alpha-beta pruning over
// disposable board copies. It is synchronous and single-threaded: one
// instance must not be shared across concurrent searches.
type Engine struct {
	rows      int
	cols      int
	baseDepth int
	cache     *TranspositionCache

	// UseIterativeDeepening selects between iterative deepening up to the
	// dynamic depth bound and a single fixed-depth search.
	UseIterativeDeepening bool
}

// NewEngine creates an engine for boards of the given dimensions.
func NewEngine(rows, cols, baseDepth int) (*Engine, error) {
	if rows < MinRows || cols < MinCols {
		return nil, ErrInvalidDimensions
	}
	if baseDepth < 1 {
		return nil, ErrInvalidDepth
	}
	return &Engine{
		rows:                  rows,
		cols:                  cols,
		baseDepth:             baseDepth,
		cache:                 NewTranspositionCache(),
		UseIterativeDeepening: true,
	}, nil
}

func (e *Engine) Rows() int      { return e.rows }
func (e *Engine) Cols() int      { return e.cols }
func (e *Engine) BaseDepth() int { return e.baseDepth }

// Cache returns the engine's transposition cache. The caller must Clear it
// between logically distinct decisions: a real move applied to the game
// board, or a change of depth policy, invalidates cached entries.
func (e *Engine) Cache() *TranspositionCache { return e.cache }

// ClearCache drops all transposition entries.
func (e *Engine) ClearCache() { e.cache.Clear() }

// IsTerminal reports whether the game has concluded on this board.
func (e *Engine) IsTerminal(b *Board) bool {
	return HasFourInARow(b, PlayerOne) || HasFourInARow(b, PlayerTwo) || b.IsFull()
}

// Score rates a board from the given side's perspective. Terminal boards
// get the win/loss sentinels or the draw value; the windowed heuristic is
// only consulted for live positions.
func (e *Engine) Score(b *Board, side Piece) int {
	if HasFourInARow(b, side) {
		return winBase
	}
	if HasFourInARow(b, Opponent(side)) {
		return lossBase
	}
	if b.IsFull() {
		return 0
	}
	return Score(b, side)
}

// ChooseDepth computes the depth bound for one decision. The base depth
// deepens as the board fills (the branching factor shrinks) and when either
// side has a near-win window (tactical sharpness matters).
func (e *Engine) ChooseDepth(b *Board) int {
	depth := e.baseDepth
	fill := b.FillRatio()
	if fill > 0.5 {
		depth++
	}
	if fill > 0.75 {
		depth++
	}
	if HasOpenThree(b, PlayerOne) || HasOpenThree(b, PlayerTwo) {
		depth++
	}
	return depth
}

// ChooseMoveIterative runs the bounded search at depth 1, 2, ... up to
// maxDepth, keeping the result of the deepest completed iteration whose
// score is not worse than all previous ones.
func (e *Engine) ChooseMoveIterative(b *Board, maxDepth int, root Piece, stats *SearchStats) (int, int) {
	open := b.OpenColumns()
	if len(open) == 0 {
		return NoMove, 0
	}

	bestCol := seedColumn(open)
	bestScore := -infinity
	for depth := 1; depth <= maxDepth; depth++ {
		col, score := e.minimax(b.Copy(), depth, -infinity, infinity, true, root, stats)
		if col != NoMove && score >= bestScore {
			bestCol, bestScore = col, score
		}
		if stats != nil {
			stats.CompletedDepth = depth
		}
	}
	return bestCol, bestScore
}

// minimax searches the position to the given remaining depth with alpha-beta
// pruning, returning the best column and its score from the root piece's
// perspective. At every node the states are tested in order: root win, root
// loss, draw, depth exhausted, expand. Ties keep the first-discovered best
// column; randomness only seeds the initial candidate before any child is
// scored.
func (e *Engine) minimax(b *Board, depth, alpha, beta int, maximizing bool, root Piece, stats *SearchStats) (int, int) {
	if stats != nil {
		stats.Nodes++
	}

	plyPenalty := e.rows*e.cols - depth
	if HasFourInARow(b, root) {
		return NoMove, winBase - plyPenalty
	}
	if HasFourInARow(b, Opponent(root)) {
		return NoMove, lossBase + plyPenalty
	}
	open := b.OpenColumns()
	if len(open) == 0 {
		return NoMove, 0
	}
	if depth == 0 {
		return NoMove, Score(b, root)
	}

	key := cacheKey{board: b.Key(), depth: depth, maximizing: maximizing, root: root}
	alphaOrig, betaOrig := alpha, beta
	if entry, ok := e.cache.probe(key); ok {
		if stats != nil {
			stats.CacheHits++
		}
		switch entry.flag {
		case CacheExact:
			return entry.column, entry.score
		case CacheLower:
			if entry.score > alpha {
				alpha = entry.score
			}
		case CacheUpper:
			if entry.score < beta {
				beta = entry.score
			}
		}
		if alpha >= beta {
			return entry.column, entry.score
		}
	}

	mover := root
	if !maximizing {
		mover = Opponent(root)
	}

	column := seedColumn(open)
	var value int
	if maximizing {
		value = -infinity
		for _, col := range open {
			child := b.Copy()
			if _, err := child.Drop(col, mover); err != nil {
				continue
			}
			_, score := e.minimax(child, depth-1, alpha, beta, false, root, stats)
			if score > value {
				value = score
				column = col
			}
			if value > alpha {
				alpha = value
			}
			if alpha >= beta {
				break
			}
		}
	} else {
		value = infinity
		for _, col := range open {
			child := b.Copy()
			if _, err := child.Drop(col, mover); err != nil {
				continue
			}
			_, score := e.minimax(child, depth-1, alpha, beta, true, root, stats)
			if score < value {
				value = score
				column = col
			}
			if value < beta {
				beta = value
			}
			if alpha >= beta {
				break
			}
		}
	}

	flag := CacheExact
	if value <= alphaOrig {
		flag = CacheUpper
	} else if value >= betaOrig {
		flag = CacheLower
	}
	e.cache.store(key, cacheEntry{column: column, score: value, flag: flag})

	return column, value
}
