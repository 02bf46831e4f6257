package matrix

import "math"

const inf = math.MaxFloat64 / 4

// Solve finds a minimum-cost assignment of rows to columns in cost (a
// rows×cols matrix). rowToCol[i] is the column assigned to row i, or -1 if
// row i is left unmatched (only possible when rows > cols). This is the
// classic O(n^3) Kuhn-Munkres shortest-augmenting-path method with dual
// potentials, grounded on the Hungarian-algorithm objective spec.md §4.5.6
// describes; no MILP/assignment-solver library appears anywhere in the
// retrieved corpus, so this is a from-scratch, textbook implementation.
func Solve(cost [][]float64) []int {
	if len(cost) == 0 {
		return nil
	}
	rows := len(cost)
	cols := len(cost[0])
	if rows <= cols {
		return solveWide(cost, rows, cols)
	}

	transposed := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		transposed[j] = make([]float64, rows)
		for i := 0; i < rows; i++ {
			transposed[j][i] = cost[i][j]
		}
	}
	colToRow := solveWide(transposed, cols, rows)

	rowToCol := make([]int, rows)
	for i := range rowToCol {
		rowToCol[i] = -1
	}
	for j, i := range colToRow {
		if i >= 0 {
			rowToCol[i] = j
		}
	}
	return rowToCol
}

// solveWide requires n <= m (at least as many columns as rows).
func solveWide(cost [][]float64, n, m int) []int {
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1) // p[j]: row (1-indexed) currently matched to column j
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, m+1)
		used := make([]bool, m+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			result[p[j]-1] = j - 1
		}
	}
	return result
}
