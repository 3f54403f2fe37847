package classifier

import (
	"math"
	"math/rand"
	"sort"
)

// ForestConfig holds the ensemble hyperparameters. The defaults mirror the
// configuration the service's models have always been fitted with; changing
// them silently would make retrained models incomparable to persisted ones.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

// DefaultForestConfig returns the standard ensemble configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		Seed:            42,
	}
}

// Node is one decision-tree node. Probs is non-nil only at leaves and holds
// the class distribution of the training samples that reached the leaf.
// Fields are exported for gob persistence.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Probs     []float64
}

// Forest is a trained random forest over NumClasses classes.
type Forest struct {
	Roots      []*Node
	NumClasses int
}

// TrainForest fits a forest of CART trees on bootstrap samples of x with gini
// impurity splits and sqrt-feature subsampling per node. Training is
// deterministic for a fixed seed and input order.
func TrainForest(cfg ForestConfig, x [][]float64, y []int, numClasses int) *Forest {
	rng := rand.New(rand.NewSource(cfg.Seed))
	nFeatures := len(x[0])
	mtry := int(math.Sqrt(float64(nFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	f := &Forest{
		Roots:      make([]*Node, 0, cfg.Trees),
		NumClasses: numClasses,
	}
	for t := 0; t < cfg.Trees; t++ {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		f.Roots = append(f.Roots, growNode(cfg, rng, x, y, idx, numClasses, mtry, 0))
	}
	return f
}

// PredictProba returns the class probability distribution for one row,
// averaged over all trees.
func (f *Forest) PredictProba(row []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	for _, root := range f.Roots {
		leaf := root.descend(row)
		for c, p := range leaf {
			probs[c] += p
		}
	}
	n := float64(len(f.Roots))
	for c := range probs {
		probs[c] /= n
	}
	return probs
}

func (n *Node) descend(row []float64) []float64 {
	for n.Probs == nil {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Probs
}

func growNode(cfg ForestConfig, rng *rand.Rand, x [][]float64, y, idx []int, numClasses, mtry, depth int) *Node {
	counts := classCounts(y, idx, numClasses)
	if depth >= cfg.MaxDepth || len(idx) < cfg.MinSamplesSplit || isPure(counts) {
		return leaf(counts, len(idx))
	}

	feat, thr, ok := bestSplit(rng, x, y, idx, numClasses, mtry)
	if !ok {
		return leaf(counts, len(idx))
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf(counts, len(idx))
	}

	return &Node{
		Feature:   feat,
		Threshold: thr,
		Left:      growNode(cfg, rng, x, y, left, numClasses, mtry, depth+1),
		Right:     growNode(cfg, rng, x, y, right, numClasses, mtry, depth+1),
	}
}

// bestSplit searches mtry randomly chosen features for the threshold with the
// lowest weighted gini impurity. Candidate thresholds are midpoints between
// consecutive distinct sorted values.
func bestSplit(rng *rand.Rand, x [][]float64, y, idx []int, numClasses, mtry int) (int, float64, bool) {
	nFeatures := len(x[0])
	order := rng.Perm(nFeatures)[:mtry]

	bestGini := math.Inf(1)
	bestFeat, bestThr := -1, 0.0

	sorted := make([]int, len(idx))
	for _, feat := range order {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool {
			return x[sorted[a]][feat] < x[sorted[b]][feat]
		})

		// Sweep left to right, moving one sample at a time from the right
		// partition to the left and scoring each distinct-value boundary.
		leftCounts := make([]int, numClasses)
		rightCounts := classCounts(y, idx, numClasses)
		total := len(idx)

		for i := 0; i < total-1; i++ {
			c := y[sorted[i]]
			leftCounts[c]++
			rightCounts[c]--

			cur, next := x[sorted[i]][feat], x[sorted[i+1]][feat]
			if cur == next {
				continue
			}
			g := weightedGini(leftCounts, i+1, rightCounts, total-i-1)
			if g < bestGini {
				bestGini = g
				bestFeat = feat
				bestThr = (cur + next) / 2
			}
		}
	}

	return bestFeat, bestThr, bestFeat >= 0
}

func weightedGini(left []int, nLeft int, right []int, nRight int) float64 {
	total := float64(nLeft + nRight)
	return float64(nLeft)/total*gini(left, nLeft) + float64(nRight)/total*gini(right, nRight)
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func classCounts(y, idx []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
}

func isPure(counts []int) bool {
	seen := 0
	for _, c := range counts {
		if c > 0 {
			seen++
		}
	}
	return seen <= 1
}

func leaf(counts []int, n int) *Node {
	probs := make([]float64, len(counts))
	if n > 0 {
		for c, cnt := range counts {
			probs[c] = float64(cnt) / float64(n)
		}
	}
	return &Node{Probs: probs}
}
