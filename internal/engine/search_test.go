package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"
)

func mustEngine(t *testing.T, rows, cols, depth int) *Engine {
	t.Helper()
	e, err := NewEngine(rows, cols, depth)
	require.NoError(t, err)
	return e
}

// fullDrawBoard builds a full 6x7 board with no four-in-a-row anywhere:
// cell(r,c) is PlayerOne iff (c/2 + r) is even, which caps every
// directional run at two.
func fullDrawBoard(t *testing.T) *Board {
	t.Helper()
	b := mustBoard(t, 6, 7)
	for c := 0; c < 7; c++ {
		for r := 0; r < 6; r++ {
			p := PlayerOne
			if (c/2+r)%2 != 0 {
				p = PlayerTwo
			}
			b.Place(r, c, p)
		}
	}
	require.False(t, HasFourInARow(b, PlayerOne))
	require.False(t, HasFourInARow(b, PlayerTwo))
	require.True(t, b.IsFull())
	return b
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(3, 7, 5)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = NewEngine(6, 2, 5)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = NewEngine(6, 7, 0)
	assert.ErrorIs(t, err, ErrInvalidDepth)

	e, err := NewEngine(6, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, e.BaseDepth())
	assert.True(t, e.UseIterativeDeepening)
}

func TestTerminalStates(t *testing.T) {
	e := mustEngine(t, 6, 7, 4)

	b := mustBoard(t, 6, 7)
	assert.False(t, e.IsTerminal(b))

	drops(t, b, PlayerOne, 0, 1, 2, 3)
	assert.True(t, e.IsTerminal(b))
	assert.Equal(t, winBase, e.Score(b, PlayerOne))
	assert.Equal(t, lossBase, e.Score(b, PlayerTwo))

	draw := fullDrawBoard(t)
	assert.True(t, e.IsTerminal(draw))
	assert.Equal(t, 0, e.Score(draw, PlayerOne))
	assert.Equal(t, 0, e.Score(draw, PlayerTwo))
}

func TestMinimaxPrefersFasterWin(t *testing.T) {
	e := mustEngine(t, 6, 7, 4)
	b := mustBoard(t, 6, 7)
	// Column 0 wins immediately for PlayerOne.
	drops(t, b, PlayerOne, 0, 0, 0)
	drops(t, b, PlayerTwo, 5, 5, 6)

	col, score := e.minimax(b.Copy(), 4, -infinity, infinity, true, PlayerOne, &SearchStats{})
	assert.Equal(t, 0, col)
	// The win is one ply deep, so it carries the smallest possible penalty
	// at this search depth.
	assert.Equal(t, winBase-(6*7-3), score)
}

func TestMinimaxSeesForcedLoss(t *testing.T) {
	e := mustEngine(t, 6, 7, 4)
	b := mustBoard(t, 6, 7)
	// PlayerTwo threatens two winning columns at once; PlayerOne to move
	// can block only one of them.
	drops(t, b, PlayerTwo, 2, 3, 4)
	drops(t, b, PlayerOne, 2, 3, 4)
	drops(t, b, PlayerTwo, 2, 3, 4)

	_, score := e.minimax(b.Copy(), 4, -infinity, infinity, true, PlayerOne, &SearchStats{})
	assert.Less(t, score, lossBase/2, "a double threat is a proven loss")
}

// refMinimax is an unpruned, uncached full minimax with the same state
// order and tie-breaking as the engine's search. Pruning must not change
// the chosen column or score, only the node count.
func refMinimax(e *Engine, b *Board, depth int, maximizing bool, root Piece) (int, int) {
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

	mover := root
	if !maximizing {
		mover = Opponent(root)
	}
	column := open[0]
	value := -infinity
	if !maximizing {
		value = infinity
	}
	for _, col := range open {
		child := b.Copy()
		if _, err := child.Drop(col, mover); err != nil {
			continue
		}
		_, score := refMinimax(e, child, depth-1, !maximizing, root)
		if maximizing && score > value {
			value, column = score, col
		}
		if !maximizing && score < value {
			value, column = score, col
		}
	}
	return column, value
}

func TestAlphaBetaEquivalence(t *testing.T) {
	positions := []struct {
		name string
		p1   []int
		p2   []int
	}{
		{"empty-ish", []int{3}, []int{2}},
		{"midgame", []int{3, 3, 2, 5}, []int{4, 4, 1, 0}},
		{"tactical", []int{0, 1, 2}, []int{6, 6, 5}},
		{"crowded center", []int{3, 3, 3, 2, 4}, []int{3, 2, 4, 2, 4}},
	}

	for _, pos := range positions {
		t.Run(pos.name, func(t *testing.T) {
			b := mustBoard(t, 6, 7)
			for i := 0; i < len(pos.p1) || i < len(pos.p2); i++ {
				if i < len(pos.p1) {
					drops(t, b, PlayerOne, pos.p1[i])
				}
				if i < len(pos.p2) {
					drops(t, b, PlayerTwo, pos.p2[i])
				}
			}

			for depth := 1; depth <= 4; depth++ {
				e := mustEngine(t, 6, 7, depth)
				stats := &SearchStats{}
				gotCol, gotScore := e.minimax(b.Copy(), depth, -infinity, infinity, true, PlayerOne, stats)
				wantCol, wantScore := refMinimax(e, b.Copy(), depth, true, PlayerOne)

				assert.Equal(t, wantScore, gotScore, "depth %d score", depth)
				assert.Equal(t, wantCol, gotCol, "depth %d column", depth)
			}
		})
	}
}

func TestChooseDepthPolicy(t *testing.T) {
	e := mustEngine(t, 6, 7, 4)

	empty := mustBoard(t, 6, 7)
	assert.Equal(t, 4, e.ChooseDepth(empty))

	// An open three adds one ply regardless of fill.
	threat := mustBoard(t, 6, 7)
	drops(t, threat, PlayerOne, 1, 2, 3)
	assert.Equal(t, 5, e.ChooseDepth(threat))

	// Past half full adds one ply; the bumps are cumulative.
	half := mustBoard(t, 6, 7)
	side := PlayerOne
	for i := 0; i < 22; i++ {
		col := i % 7
		_, err := half.Drop(col, side)
		require.NoError(t, err)
		side = Opponent(side)
	}
	assert.GreaterOrEqual(t, e.ChooseDepth(half), 5)

	full := fullDrawBoard(t)
	// Fill bumps apply even when nothing is playable; ChooseDepth only
	// shapes the bound, the search itself reports the draw.
	assert.GreaterOrEqual(t, e.ChooseDepth(full), 6)
}

func TestChooseMoveIterativeKeepsDeepestBest(t *testing.T) {
	e := mustEngine(t, 6, 7, 5)
	b := mustBoard(t, 6, 7)

	stats := &SearchStats{}
	col, _ := e.ChooseMoveIterative(b, 3, PlayerOne, stats)
	assert.Equal(t, 3, col, "center is the strongest opening at every depth")
	assert.Equal(t, 3, stats.CompletedDepth)
	assert.Greater(t, stats.Nodes, uint64(0))
}

func TestCachePopulatesAndClears(t *testing.T) {
	e := mustEngine(t, 6, 7, 4)
	b := mustBoard(t, 6, 7)
	drops(t, b, PlayerOne, 3)
	drops(t, b, PlayerTwo, 2)

	_, _ = e.minimax(b.Copy(), 4, -infinity, infinity, true, PlayerOne, &SearchStats{})
	assert.Greater(t, e.Cache().Len(), 0)

	// Re-searching the same position at the same depth hits the cache.
	stats := &SearchStats{}
	_, _ = e.minimax(b.Copy(), 4, -infinity, infinity, true, PlayerOne, stats)
	assert.Greater(t, stats.CacheHits, uint64(0))

	e.ClearCache()
	assert.Equal(t, 0, e.Cache().Len())
	assert.Equal(t, uint64(0), e.Cache().Hits())
}

func TestCacheDistinguishesRootPiece(t *testing.T) {
	e := mustEngine(t, 6, 7, 3)
	b := mustBoard(t, 6, 7)
	drops(t, b, PlayerOne, 0, 1)
	drops(t, b, PlayerTwo, 5, 6)

	_, oneScore := e.minimax(b.Copy(), 3, -infinity, infinity, true, PlayerOne, &SearchStats{})
	_, twoScore := e.minimax(b.Copy(), 3, -infinity, infinity, true, PlayerTwo, &SearchStats{})

	// Same position searched for either side must not collide in the
	// cache; fresh engines give the ground truth.
	f1 := mustEngine(t, 6, 7, 3)
	_, wantOne := f1.minimax(b.Copy(), 3, -infinity, infinity, true, PlayerOne, &SearchStats{})
	f2 := mustEngine(t, 6, 7, 3)
	_, wantTwo := f2.minimax(b.Copy(), 3, -infinity, infinity, true, PlayerTwo, &SearchStats{})

	assert.Equal(t, wantOne, oneScore)
	assert.Equal(t, wantTwo, twoScore)
}

func TestSearchIsDeterministic(t *testing.T) {
	b := mustBoard(t, 6, 7)
	side := PlayerOne
	for i := 0; i < 10; i++ {
		open := b.OpenColumns()
		_, err := b.Drop(open[frand.Intn(len(open))], side)
		require.NoError(t, err)
		side = Opponent(side)
	}

	var cols []int
	for i := 0; i < 5; i++ {
		e := mustEngine(t, 6, 7, 4)
		col, _ := e.minimax(b.Copy(), 4, -infinity, infinity, true, PlayerOne, &SearchStats{})
		cols = append(cols, col)
	}
	for _, c := range cols[1:] {
		assert.Equal(t, cols[0], c, "search must be a replayable function of (board, depth, side)")
	}
}
