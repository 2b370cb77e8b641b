package engine

import "errors"

// WindowLength is the number of consecutive pieces needed to win.
const WindowLength = 4

// MinRows and MinCols are the smallest board the engine accepts; anything
// smaller cannot contain a four-in-a-row in every direction.
const (
	MinRows = 4
	MinCols = 4
)

// Piece is the content of a single board cell.
type Piece int8

const (
	Empty Piece = iota
	PlayerOne
	PlayerTwo
)

// Opponent returns the other player's piece. Empty has no opponent.
func Opponent(p Piece) Piece {
	switch p {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	}
	return Empty
}

var (
	ErrInvalidDimensions = errors.New("board dimensions must be at least 4x4")
	ErrInvalidColumn     = errors.New("column out of range")
	ErrColumnFull        = errors.New("column is full")
	ErrNoLegalMove       = errors.New("no legal move available")
)

// Board is a rows x cols grid with gravity-fed columns. Row 0 is the bottom
// row: within a column, occupied cells are contiguous from row 0 upward.
// A Board is exclusively owned by its caller; the search operates on copies,
// so there is no internal locking.
type Board struct {
	rows  int
	cols  int
	cells []Piece // row-major, index = row*cols + col
}

// NewBoard creates an empty rows x cols board.
func NewBoard(rows, cols int) (*Board, error) {
	if rows < MinRows || cols < MinCols {
		return nil, ErrInvalidDimensions
	}
	return &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]Piece, rows*cols),
	}, nil
}

func (b *Board) Rows() int { return b.rows }
func (b *Board) Cols() int { return b.cols }

// Cell returns the piece at the given position. The caller is responsible
// for passing in-range coordinates.
func (b *Board) Cell(row, col int) Piece {
	return b.cells[row*b.cols+col]
}

// IsColumnOpen reports whether the column can accept another piece.
func (b *Board) IsColumnOpen(col int) (bool, error) {
	if col < 0 || col >= b.cols {
		return false, ErrInvalidColumn
	}
	return b.Cell(b.rows-1, col) == Empty, nil
}

// OpenRow returns the lowest empty row in the column.
func (b *Board) OpenRow(col int) (int, error) {
	if col < 0 || col >= b.cols {
		return -1, ErrInvalidColumn
	}
	for row := 0; row < b.rows; row++ {
		if b.Cell(row, col) == Empty {
			return row, nil
		}
	}
	return -1, ErrColumnFull
}

// Place sets a single cell. It is a low-level primitive: the caller must
// have validated the target via OpenRow or IsColumnOpen, and no gravity
// correction is applied.
func (b *Board) Place(row, col int, p Piece) {
	b.cells[row*b.cols+col] = p
}

// Drop resolves gravity for the column and places the piece in the lowest
// open row, returning that row.
func (b *Board) Drop(col int, p Piece) (int, error) {
	row, err := b.OpenRow(col)
	if err != nil {
		return -1, err
	}
	b.Place(row, col, p)
	return row, nil
}

// RemoveTop clears the topmost piece in the column, undoing a Drop.
func (b *Board) RemoveTop(col int) {
	for row := b.rows - 1; row >= 0; row-- {
		if b.Cell(row, col) != Empty {
			b.Place(row, col, Empty)
			return
		}
	}
}

// Reset clears every cell.
func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
}

// Copy returns an independent deep copy for speculative search.
func (b *Board) Copy() *Board {
	cells := make([]Piece, len(b.cells))
	copy(cells, b.cells)
	return &Board{rows: b.rows, cols: b.cols, cells: cells}
}

// OpenColumns returns the columns that can accept a piece, in natural order.
func (b *Board) OpenColumns() []int {
	open := make([]int, 0, b.cols)
	for col := 0; col < b.cols; col++ {
		if b.Cell(b.rows-1, col) == Empty {
			open = append(open, col)
		}
	}
	return open
}

// IsFull reports whether no column has an open cell.
func (b *Board) IsFull() bool {
	for col := 0; col < b.cols; col++ {
		if b.Cell(b.rows-1, col) == Empty {
			return false
		}
	}
	return true
}

// FillRatio returns the fraction of occupied cells.
func (b *Board) FillRatio() float64 {
	filled := 0
	for _, c := range b.cells {
		if c != Empty {
			filled++
		}
	}
	return float64(filled) / float64(len(b.cells))
}

// Key returns a canonical encoding of the full grid contents, packing each
// cell's state into 2 bits. Two boards produce the same key iff their cells
// are identical, so it is safe as a transposition-cache key without
// collision verification.
func (b *Board) Key() string {
	packed := make([]byte, (len(b.cells)+3)/4)
	for i, c := range b.cells {
		packed[i/4] |= byte(c) << uint((i%4)*2)
	}
	return string(packed)
}

// ToSlice converts the board to a 2D slice for JSON serialization, with
// index [0] as the bottom row.
func (b *Board) ToSlice() [][]int {
	out := make([][]int, b.rows)
	for row := 0; row < b.rows; row++ {
		out[row] = make([]int, b.cols)
		for col := 0; col < b.cols; col++ {
			out[row][col] = int(b.Cell(row, col))
		}
	}
	return out
}
