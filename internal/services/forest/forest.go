// Package forest implements a random-forest regressor: bootstrap-sampled
// CART trees averaged at prediction time.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"StockInsight/internal/domain/service"
)

var (
	ErrEmptyTraining = errors.New("forest: empty training set")
	ErrShape         = errors.New("forest: inconsistent training shape")
)

// Config holds the ensemble hyperparameters.
type Config struct {
	Trees           int
	Seed            int64
	MaxDepth        int // 0 = grow until leaves are pure
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 = every feature at every split
	Bootstrap       bool
}

// DefaultConfig is 100 fully grown trees seeded with 42.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		Seed:            42,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
}

// Regressor is a random forest of regression trees.
type Regressor struct {
	cfg       Config
	trees     []*tree
	nFeatures int
}

var _ service.Regressor = (*Regressor)(nil)

// New creates an unfitted forest. Zero-valued limits fall back to defaults.
func New(cfg Config) *Regressor {
	def := DefaultConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = def.MinSamplesSplit
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = def.MinSamplesLeaf
	}
	return &Regressor{cfg: cfg}
}

// Fit trains a fresh ensemble on X, y, discarding any previous fit.
// Trees are grown in parallel; each tree's randomness comes from a seed
// drawn in order from the master seed, so results do not depend on
// scheduling.
func (f *Regressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return ErrEmptyTraining
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShape, len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return fmt.Errorf("%w: no features", ErrShape)
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), width)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("forest: row %d has a non-finite feature", i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return fmt.Errorf("forest: row %d has a non-finite target", i)
		}
	}

	master := rand.New(rand.NewSource(f.cfg.Seed))
	seeds := make([]int64, f.cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	params := treeParams{
		maxDepth:    f.cfg.MaxDepth,
		minSplit:    f.cfg.MinSamplesSplit,
		minLeaf:     f.cfg.MinSamplesLeaf,
		maxFeatures: f.cfg.MaxFeatures,
	}
	trees := make([]*tree, f.cfg.Trees)

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i := range trees {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			rng := rand.New(rand.NewSource(seeds[i]))
			trees[i] = growTree(X, y, f.sample(len(X), rng), params, rng)
		}(i)
	}
	wg.Wait()

	f.trees = trees
	f.nFeatures = width
	return nil
}

func (f *Regressor) sample(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		if f.cfg.Bootstrap {
			idx[i] = rng.Intn(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}

// Predict averages the trees. It returns NaN when the model is unfitted or
// x has the wrong width.
func (f *Regressor) Predict(x []float64) float64 {
	if len(f.trees) == 0 || len(x) != f.nFeatures {
		return math.NaN()
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}
