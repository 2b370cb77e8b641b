package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Empty 6x7 board, depth 5: the first player's best opening is the center
// column.
func TestChooseMoveOpensInCenter(t *testing.T) {
	e := mustEngine(t, 6, 7, 5)
	b := mustBoard(t, 6, 7)

	dec, err := e.ChooseMove(b, PlayerOne)
	require.NoError(t, err)
	assert.Equal(t, 3, dec.Column)
	assert.False(t, dec.Shortcut)
	assert.Greater(t, dec.Nodes, uint64(0))
	assert.Equal(t, 5, dec.Depth)
}

// Given a column that completes four-in-a-row for the side to move,
// ChooseMove returns it regardless of configured depth.
func TestChooseMoveImmediateWinShortcut(t *testing.T) {
	for _, depth := range []int{1, 3, 8} {
		e := mustEngine(t, 6, 7, depth)
		b := mustBoard(t, 6, 7)
		drops(t, b, PlayerTwo, 4, 4, 4)
		drops(t, b, PlayerOne, 0, 1, 2)

		dec, err := e.ChooseMove(b, PlayerTwo)
		require.NoError(t, err)
		assert.Equal(t, 4, dec.Column, "depth %d", depth)
		assert.True(t, dec.Shortcut)
		assert.Equal(t, winBase, dec.Score)
	}
}

func TestChooseMoveImmediateWinLeavesBoardUntouched(t *testing.T) {
	e := mustEngine(t, 6, 7, 3)
	b := mustBoard(t, 6, 7)
	drops(t, b, PlayerOne, 2, 2, 2)

	key := b.Key()
	dec, err := e.ChooseMove(b, PlayerOne)
	require.NoError(t, err)
	assert.Equal(t, 2, dec.Column)
	assert.Equal(t, key, b.Key(), "the shortcut must only touch scratch copies")
}

// Vertical threat: the opponent is stacked at rows 0-2 of column 0; the
// engine must block (or take its own win first, which this position does
// not offer).
func TestChooseMoveBlocksVerticalThreat(t *testing.T) {
	for _, depth := range []int{1, 2, 3, 4} {
		e := mustEngine(t, 6, 7, depth)
		b := mustBoard(t, 6, 7)
		drops(t, b, PlayerOne, 0, 0, 0)

		dec, err := e.ChooseMove(b, PlayerTwo)
		require.NoError(t, err)
		assert.Equal(t, 0, dec.Column, "depth %d must block the stack", depth)
	}
}

func TestChooseMoveOwnWinBeatsBlock(t *testing.T) {
	e := mustEngine(t, 6, 7, 3)
	b := mustBoard(t, 6, 7)
	// Both sides have a winning column; the side to move takes its own.
	drops(t, b, PlayerOne, 0, 0, 0)
	drops(t, b, PlayerTwo, 6, 6, 6)

	dec, err := e.ChooseMove(b, PlayerTwo)
	require.NoError(t, err)
	assert.Equal(t, 6, dec.Column)
	assert.True(t, dec.Shortcut)
}

// Full board, no winner: ChooseMove signals a draw, not a failure.
func TestChooseMoveOnFullBoard(t *testing.T) {
	e := mustEngine(t, 6, 7, 5)
	b := fullDrawBoard(t)

	dec, err := e.ChooseMove(b, PlayerOne)
	assert.ErrorIs(t, err, ErrNoLegalMove)
	assert.Equal(t, NoMove, dec.Column)
	assert.True(t, e.IsTerminal(b))
	assert.Equal(t, 0, e.Score(b, PlayerOne))
	assert.Equal(t, 0, e.Score(b, PlayerTwo))
}

func TestChooseMoveSingleDepthConfiguration(t *testing.T) {
	e := mustEngine(t, 6, 7, 4)
	e.UseIterativeDeepening = false
	b := mustBoard(t, 6, 7)
	drops(t, b, PlayerOne, 0, 0, 0)

	dec, err := e.ChooseMove(b, PlayerTwo)
	require.NoError(t, err)
	assert.Equal(t, 0, dec.Column, "single-depth search still blocks")
}

func TestChooseMoveVariableBoards(t *testing.T) {
	// The engine is not wedded to 6x7; larger and smaller grids work the
	// same way.
	for _, dims := range [][2]int{{4, 4}, {5, 9}, {8, 8}} {
		e := mustEngine(t, dims[0], dims[1], 3)
		b := mustBoard(t, dims[0], dims[1])
		drops(t, b, PlayerOne, 0, 0, 0)

		dec, err := e.ChooseMove(b, PlayerTwo)
		require.NoError(t, err)
		assert.Equal(t, 0, dec.Column, "%dx%d", dims[0], dims[1])
	}
}
