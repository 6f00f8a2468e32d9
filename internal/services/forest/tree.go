package forest

import (
	"math"
	"math/rand"
	"sort"
)

const leaf = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// tree is a CART regression tree stored as a flat node slice; nodes[0] is
// the root.
type tree struct {
	nodes []node
}

type treeParams struct {
	maxDepth    int // 0 = unlimited
	minSplit    int
	minLeaf     int
	maxFeatures int
}

type treeBuilder struct {
	X   [][]float64
	y   []float64
	p   treeParams
	rng *rand.Rand
	t   *tree
}

func growTree(X [][]float64, y []float64, idx []int, p treeParams, rng *rand.Rand) *tree {
	b := &treeBuilder{X: X, y: y, p: p, rng: rng, t: &tree{}}
	b.grow(idx, 0)
	return b.t
}

// grow appends the subtree for idx and returns its node index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.t.nodes)
	b.t.nodes = append(b.t.nodes, node{feature: leaf, left: leaf, right: leaf, value: b.mean(idx)})

	if len(idx) < b.p.minSplit || len(idx) < 2*b.p.minLeaf {
		return id
	}
	if b.p.maxDepth > 0 && depth >= b.p.maxDepth {
		return id
	}
	if b.pure(idx) {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	n := &b.t.nodes[id]
	n.feature, n.threshold, n.left, n.right = feature, threshold, l, r
	return id
}

// bestSplit searches the sampled features for the threshold with the
// largest squared-error reduction.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	nFeatures := len(b.X[idx[0]])
	candidates := b.rng.Perm(nFeatures)
	if b.p.maxFeatures > 0 && b.p.maxFeatures < nFeatures {
		candidates = candidates[:b.p.maxFeatures]
	}

	var total float64
	for _, i := range idx {
		total += b.y[i]
	}
	n := float64(len(idx))
	parentScore := total * total / n

	bestGain := 1e-12
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, len(idx))
	for _, f := range candidates {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		var leftSum float64
		for k := 0; k < len(sorted)-1; k++ {
			leftSum += b.y[sorted[k]]
			nl := k + 1
			nr := len(sorted) - nl
			if nl < b.p.minLeaf || nr < b.p.minLeaf {
				continue
			}
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - parentScore
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = midpoint(lo, hi)
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// midpoint falls back to lo when rounding lands on hi, so lo always goes left.
func midpoint(lo, hi float64) float64 {
	m := lo + (hi-lo)/2
	if m >= hi {
		return lo
	}
	return m
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if math.Abs(b.y[i]-first) > 1e-12 {
			return false
		}
	}
	return true
}

func (t *tree) predict(x []float64) float64 {
	id := 0
	for {
		n := t.nodes[id]
		if n.left == leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			id = n.left
		} else {
			id = n.right
		}
	}
}

func (t *tree) depth() int {
	var walk func(id int) int
	walk = func(id int) int {
		n := t.nodes[id]
		if n.left == leaf {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}
