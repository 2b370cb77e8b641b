package engine

// Score rates a non-terminal board from the given piece's perspective:
// a center-column occupancy bonus plus the sum of every four-cell window
// in all four directions. Central placements participate in more potential
// winning lines, hence the bonus. Pure: the board is never modified.
func Score(b *Board, p Piece) int {
	score := 0
	rows, cols := b.rows, b.cols

	center := cols / 2
	for row := 0; row < rows; row++ {
		if b.Cell(row, center) == p {
			score += centerWeight
		}
	}

	for row := 0; row < rows; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			score += EvaluateWindow([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row, col+1), b.Cell(row, col+2), b.Cell(row, col+3),
			}, p)
		}
	}
	for row := 0; row <= rows-WindowLength; row++ {
		for col := 0; col < cols; col++ {
			score += EvaluateWindow([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row+1, col), b.Cell(row+2, col), b.Cell(row+3, col),
			}, p)
		}
	}
	for row := 0; row <= rows-WindowLength; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			score += EvaluateWindow([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row+1, col+1), b.Cell(row+2, col+2), b.Cell(row+3, col+3),
			}, p)
		}
	}
	for row := WindowLength - 1; row < rows; row++ {
		for col := 0; col <= cols-WindowLength; col++ {
			score += EvaluateWindow([WindowLength]Piece{
				b.Cell(row, col), b.Cell(row-1, col+1), b.Cell(row-2, col+2), b.Cell(row-3, col+3),
			}, p)
		}
	}

	return score
}
