package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"
)

// rotate180 returns the board flipped in both axes. The result generally
// violates gravity, which is fine: the scanner operates on raw cells.
func rotate180(b *Board) *Board {
	out := b.Copy()
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			out.Place(b.Rows()-1-r, b.Cols()-1-c, b.Cell(r, c))
		}
	}
	return out
}

func TestHasFourInARowAllDirections(t *testing.T) {
	tests := []struct {
		name  string
		place [][2]int // (row, col) cells for PlayerOne
	}{
		{"horizontal bottom", [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}}},
		{"horizontal top edge", [][2]int{{5, 3}, {5, 4}, {5, 5}, {5, 6}}},
		{"vertical", [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
		{"vertical upper", [][2]int{{2, 6}, {3, 6}, {4, 6}, {5, 6}}},
		{"diagonal up-right", [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
		{"diagonal down-right", [][2]int{{3, 0}, {2, 1}, {1, 2}, {0, 3}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := mustBoard(t, 6, 7)
			for _, cell := range tc.place {
				b.Place(cell[0], cell[1], PlayerOne)
			}
			assert.True(t, HasFourInARow(b, PlayerOne))
			assert.False(t, HasFourInARow(b, PlayerTwo))
		})
	}
}

func TestThreeInARowIsNotAWin(t *testing.T) {
	b := mustBoard(t, 6, 7)
	drops(t, b, PlayerTwo, 0, 1, 2)
	assert.False(t, HasFourInARow(b, PlayerTwo))
}

func TestNoWrapAroundAtEdges(t *testing.T) {
	b := mustBoard(t, 6, 7)
	// Three at the right edge plus one at the left edge of the same row
	// must not register as a horizontal win.
	b.Place(0, 4, PlayerOne)
	b.Place(0, 5, PlayerOne)
	b.Place(0, 6, PlayerOne)
	b.Place(0, 0, PlayerOne)
	assert.False(t, HasFourInARow(b, PlayerOne))
}

// No false positive on empty: an empty run is never a win, even though a
// fresh board is nothing but empty runs.
func TestHasFourInARowEmptyPiece(t *testing.T) {
	b := mustBoard(t, 6, 7)
	assert.False(t, HasFourInARow(b, Empty))

	drops(t, b, PlayerOne, 0, 1, 2, 3)
	assert.False(t, HasFourInARow(b, Empty))
	assert.True(t, HasFourInARow(b, PlayerOne))
}

// Win detection is invariant under 180-degree rotation: the four
// directional scans cover the same line set in either orientation.
func TestHasFourInARowRotationSymmetry(t *testing.T) {
	for trial := 0; trial < 50; trial++ {
		b := mustBoard(t, 6, 7)
		side := PlayerOne
		moves := frand.Intn(42)
		for i := 0; i < moves; i++ {
			open := b.OpenColumns()
			if len(open) == 0 {
				break
			}
			_, err := b.Drop(open[frand.Intn(len(open))], side)
			require.NoError(t, err)
			side = Opponent(side)
		}

		r := rotate180(b)
		assert.Equal(t, HasFourInARow(b, PlayerOne), HasFourInARow(r, PlayerOne))
		assert.Equal(t, HasFourInARow(b, PlayerTwo), HasFourInARow(r, PlayerTwo))
	}
}

func TestHasOpenThree(t *testing.T) {
	b := mustBoard(t, 6, 7)
	assert.False(t, HasOpenThree(b, PlayerOne))

	drops(t, b, PlayerOne, 1, 2, 3)
	assert.True(t, HasOpenThree(b, PlayerOne), "three in a row with open ends")
	assert.False(t, HasOpenThree(b, PlayerTwo))

	// Blocking both ends kills the signal.
	drops(t, b, PlayerTwo, 0, 4)
	assert.False(t, HasOpenThree(b, PlayerOne))
}

// HasOpenThree is gravity-blind: a window whose empty cell floats above
// unfilled cells still counts. The dynamic-depth policy accepts this as a
// cheap proxy for tactical urgency.
func TestHasOpenThreeIgnoresGravity(t *testing.T) {
	b := mustBoard(t, 6, 7)
	// Vertical three in column 0; the completing cell at row 3 is directly
	// playable here, but the diagonal case below is not.
	b.Place(2, 2, PlayerOne)
	b.Place(3, 3, PlayerOne)
	b.Place(4, 4, PlayerOne)
	// Window (1,1)..(4,4) has three pieces and an empty corner at (1,1)
	// that is unreachable right now (nothing beneath it).
	assert.True(t, HasOpenThree(b, PlayerOne))
}

func TestEvaluateWindow(t *testing.T) {
	p1 := PlayerOne
	p2 := PlayerTwo
	e := Empty

	tests := []struct {
		name   string
		window [WindowLength]Piece
		piece  Piece
		want   int
	}{
		{"four of mine", [WindowLength]Piece{p1, p1, p1, p1}, p1, windowWinScore},
		{"three plus empty", [WindowLength]Piece{p1, p1, e, p1}, p1, windowThreeScore},
		{"two plus two empty", [WindowLength]Piece{e, p1, p1, e}, p1, windowTwoScore},
		{"opponent threat", [WindowLength]Piece{p2, p2, p2, e}, p1, windowOpponentThree},
		{"blocked mixed", [WindowLength]Piece{p1, p2, p1, p1}, p1, 0},
		{"all empty", [WindowLength]Piece{e, e, e, e}, p1, 0},
		{"three mine one theirs", [WindowLength]Piece{p1, p1, p1, p2}, p1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateWindow(tc.window, tc.piece))
		})
	}
}
