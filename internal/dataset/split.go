package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles rows with a seeded permutation and holds out
// ceil(n*testSize) of them for testing.
func TrainTestSplit(x [][]float64, y []float64, testSize float64, seed int64) (xTrain, xTest [][]float64, yTrain, yTest []float64, err error) {
	n := len(x)
	if n != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("features have %d rows but labels have %d", n, len(y))
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest == 0 || nTest >= n {
		return nil, nil, nil, nil, fmt.Errorf("test size %v leaves an empty split for %d rows", testSize, n)
	}

	indices := rand.New(rand.NewSource(seed)).Perm(n)
	for i, idx := range indices {
		if i < nTest {
			xTest = append(xTest, x[idx])
			yTest = append(yTest, y[idx])
		} else {
			xTrain = append(xTrain, x[idx])
			yTrain = append(yTrain, y[idx])
		}
	}
	return xTrain, xTest, yTrain, yTest, nil
}
