package engine

// Window scoring constants. The magnitudes are tunable; the relative
// ordering (win >> three > two > 0 > opponent-three) is the contract.
const (
	windowWinScore      = 100
	windowThreeScore    = 5
	windowTwoScore      = 2
	windowOpponentThree = -4
	centerWeight        = 3
)

// HasFourInARow scans every horizontal, vertical, and diagonal run of four
// cells for the given piece. An empty run is never a win.
func HasFourInARow(b *Board, p Piece) bool {
	if p == Empty {
		return false
	}
	rows, cols := b.rows, b.cols

	// Horizontal
	for row := 0; row < rows; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			if b.Cell(row, col) == p &&
				b.Cell(row, col+1) == p &&
				b.Cell(row, col+2) == p &&
				b.Cell(row, col+3) == p {
				return true
			}
		}
	}

	// Vertical
	for row := 0; row <= rows-WindowLength; row++ {
		for col := 0; col < cols; col++ {
			if b.Cell(row, col) == p &&
				b.Cell(row+1, col) == p &&
				b.Cell(row+2, col) == p &&
				b.Cell(row+3, col) == p {
				return true
			}
		}
	}

	// Diagonal up-right
	for row := 0; row <= rows-WindowLength; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			if b.Cell(row, col) == p &&
				b.Cell(row+1, col+1) == p &&
				b.Cell(row+2, col+2) == p &&
				b.Cell(row+3, col+3) == p {
				return true
			}
		}
	}

	// Diagonal down-right
	for row := WindowLength - 1; row < rows; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			if b.Cell(row, col) == p &&
				b.Cell(row-1, col+1) == p &&
				b.Cell(row-2, col+2) == p &&
				b.Cell(row-3, col+3) == p {
				return true
			}
		}
	}

	return false
}

// HasOpenThree reports whether any four-cell window contains exactly three
// of the given piece and at least one empty cell. It is the near-win signal
// for dynamic depth selection: a cheap proxy, not a strict one-move-from-
// winning detector. It does not check that the empty cell is currently
// reachable under gravity.
func HasOpenThree(b *Board, p Piece) bool {
	if p == Empty {
		return false
	}
	rows, cols := b.rows, b.cols

	threeWithOpen := func(w [WindowLength]Piece) bool {
		count, empty := 0, 0
		for _, c := range w {
			switch c {
			case p:
				count++
			case Empty:
				empty++
			}
		}
		return count == 3 && empty >= 1
	}

	for row := 0; row < rows; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			if threeWithOpen([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row, col+1), b.Cell(row, col+2), b.Cell(row, col+3),
			}) {
				return true
			}
		}
	}
	for row := 0; row <= rows-WindowLength; row++ {
		for col := 0; col < cols; col++ {
			if threeWithOpen([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row+1, col), b.Cell(row+2, col), b.Cell(row+3, col),
			}) {
				return true
			}
		}
	}
	for row := 0; row <= rows-WindowLength; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			if threeWithOpen([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row+1, col+1), b.Cell(row+2, col+2), b.Cell(row+3, col+3),
			}) {
				return true
			}
		}
	}
	for row := WindowLength - 1; row < rows; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			if threeWithOpen([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row-1, col+1), b.Cell(row-2, col+2), b.Cell(row-3, col+3),
			}) {
				return true
			}
		}
	}

	return false
}

// EvaluateWindow scores a single four-cell window from the given piece's
// perspective.
func EvaluateWindow(window [WindowLength]Piece, p Piece) int {
	opponent := Opponent(p)
	mine, theirs, empty := 0, 0, 0
	for _, c := range window {
		switch c {
		case p:
			mine++
		case opponent:
			theirs++
		case Empty:
			empty++
		}
	}

	switch {
	case mine == 4:
		return windowWinScore
	case mine == 3 && empty == 1:
		return windowThreeScore
	case mine == 2 && empty == 2:
		return windowTwoScore
	case theirs == 3 && empty == 1:
		return windowOpponentThree
	}
	return 0
}
