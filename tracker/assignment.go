package tracker

import (
	"fmt"
)

// infCost marks a pair that must never be matched
const infCost = 1e5

// match pairs a track index with a detection index
type match struct {
	track     int
	detection int
}

// linearAssignment solves the min cost matching of the rows x cols cost
// matrix.  The matrix is extended with thresh/2 padding so any pair costing
// more than thresh is left unmatched instead of forced.
func linearAssignment(cost [][]float64, rows, cols int,
	thresh float64) (matches []match, unmatchedRows, unmatchedCols []int, err error) {

	if rows == 0 || cols == 0 {
		for i := 0; i < rows; i++ {
			unmatchedRows = append(unmatchedRows, i)
		}
		for j := 0; j < cols; j++ {
			unmatchedCols = append(unmatchedCols, j)
		}
		return
	}

	n := rows + cols
	ext := make([][]float64, n)

	for i := range ext {
		ext[i] = make([]float64, n)

		for j := range ext[i] {
			switch {
			case i < rows && j < cols:
				ext[i][j] = cost[i][j]
			case i >= rows && j >= cols:
				ext[i][j] = 0
			default:
				ext[i][j] = thresh / 2
			}
		}
	}

	x, y, err := solveLAPJV(ext)

	if err != nil {
		return nil, nil, nil, fmt.Errorf("linear assignment failed: %w", err)
	}

	for i := 0; i < rows; i++ {
		j := x[i]

		if j >= 0 && j < cols && cost[i][j] <= thresh {
			matches = append(matches, match{track: i, detection: j})
			continue
		}

		unmatchedRows = append(unmatchedRows, i)
	}

	for j := 0; j < cols; j++ {
		i := y[j]

		if i >= 0 && i < rows && cost[i][j] <= thresh {
			continue
		}

		unmatchedCols = append(unmatchedCols, j)
	}

	return matches, unmatchedRows, unmatchedCols, nil
}
