package chess

// pathClear walks unit steps from from towards to and reports whether every
// square strictly between them is empty. Displacements that are neither
// straight nor diagonal have no path; they are left to the shape rules.
func pathClear(b *Board, from, to Square) bool {
	dr, dc := to.Row()-from.Row(), to.Col()-from.Col()
	if dr != 0 && dc != 0 && abs(dr) != abs(dc) {
		return true
	}
	stepR, stepC := sign(dr), sign(dc)
	row, col := from.Row()+stepR, from.Col()+stepC
	for row != to.Row() || col != to.Col() {
		if !b[SquareAt(row, col)].IsZero() {
			return false
		}
		row += stepR
		col += stepC
	}
	return true
}

func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// Attacks reports whether the piece on from attacks target: shape and path
// only. It never simulates moves, so check detection built on it cannot
// recurse into king-safety validation.
func Attacks(b *Board, from, target Square) bool {
	p, ok := b.PieceAt(from)
	if !ok || !target.Valid() || from == target {
		return false
	}
	dr, dc := target.Row()-from.Row(), target.Col()-from.Col()
	switch p.Type {
	case Pawn:
		return dr == pawnDirection(p.Color) && abs(dc) == 1
	case Knight:
		return knightShape(dr, dc)
	case Bishop:
		return bishopShape(dr, dc) && pathClear(b, from, target)
	case Rook:
		return rookShape(dr, dc) && pathClear(b, from, target)
	case Queen:
		return (bishopShape(dr, dc) || rookShape(dr, dc)) && pathClear(b, from, target)
	case King:
		return abs(dr) <= 1 && abs(dc) <= 1
	}
	return false
}

// SquareAttacked reports whether any piece of color by attacks sq.
func SquareAttacked(b *Board, sq Square, by Color) bool {
	for from := Square(0); from < 64; from++ {
		if p := b[from]; !p.IsZero() && p.Color == by && Attacks(b, from, sq) {
			return true
		}
	}
	return false
}

func knightShape(dr, dc int) bool {
	ar, ac := abs(dr), abs(dc)
	return (ar == 2 && ac == 1) || (ar == 1 && ac == 2)
}

func bishopShape(dr, dc int) bool { return abs(dr) == abs(dc) && dr != 0 }

func rookShape(dr, dc int) bool { return (dr == 0) != (dc == 0) }
