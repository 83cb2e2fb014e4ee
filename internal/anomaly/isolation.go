package anomaly

import (
	"math"
	"math/rand/v2"
	"sort"

	"StockLens/internal/model"
)

// Isolation forest defaults.
const (
	DefaultContamination = 0.05
	DefaultTrees         = 100
	DefaultSampleSize    = 256
	DefaultSeed          = 42
)

const eulerGamma = 0.5772156649015329

// IsolationForest scores closes by how quickly random axis splits isolate
// them. Only the close is used as a feature.
type IsolationForest struct {
	Contamination float64 // expected outlier fraction, in (0, 0.5]
	Trees         int
	SampleSize    int
	Seed          uint64
}

type iNode struct {
	split       float64
	left, right *iNode
	size        int // leaf only
}

func (f IsolationForest) validate() error {
	if !(f.Contamination > 0 && f.Contamination <= 0.5) {
		return model.NewConfigurationError("contamination", f.Contamination)
	}
	if f.Trees <= 0 {
		return model.NewConfigurationError("trees", f.Trees)
	}
	if f.SampleSize <= 0 {
		return model.NewConfigurationError("sample_size", f.SampleSize)
	}
	return nil
}

// Detect fits the forest on the finite closes and writes two channels:
// Anomaly_Score holds 2^(-E[h(x)]/c(ψ)) and Anomaly is 1 for outliers, 0 for
// inliers. NaN closes get NaN in both.
//
// At most ceil(Contamination·n) points are outliers: those scoring strictly
// above the next-ranked score, so equal closes are always labelled alike.
func (f IsolationForest) Detect(series *model.PriceSeries) (*model.DerivedSeries, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	closes := series.Closes()
	var finite []int
	for i, c := range closes {
		if model.IsDefined(c) {
			finite = append(finite, i)
		}
	}
	if len(finite) == 0 {
		return nil, model.ErrEmptySeries
	}

	scores := f.score(closes, finite)

	flags := model.NaNs(len(closes))
	for _, i := range finite {
		flags[i] = 0
	}
	ranked := make([]float64, len(finite))
	for j, i := range finite {
		ranked[j] = scores[i]
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ranked)))
	k := int(math.Ceil(f.Contamination * float64(len(finite))))
	if k < len(ranked) {
		cut := ranked[k]
		for _, i := range finite {
			if scores[i] > cut {
				flags[i] = 1
			}
		}
	}

	out := model.NewDerivedSeries(series.Dates())
	out.Set(model.ChannelAnomaly, flags)
	out.Set(model.ChannelAnomalyScore, scores)
	return out, nil
}

func (f IsolationForest) score(closes []float64, finite []int) []float64 {
	rng := rand.New(rand.NewPCG(f.Seed, f.Seed^0x9e3779b97f4a7c15))
	psi := min(f.SampleSize, len(finite))
	limit := int(math.Ceil(math.Log2(float64(max(psi, 2)))))

	trees := make([]*iNode, f.Trees)
	pool := make([]int, len(finite))
	sample := make([]float64, psi)
	for t := range trees {
		copy(pool, finite)
		// partial Fisher-Yates: the first psi slots are a sample without replacement
		for j := 0; j < psi; j++ {
			r := j + rng.IntN(len(pool)-j)
			pool[j], pool[r] = pool[r], pool[j]
			sample[j] = closes[pool[j]]
		}
		trees[t] = grow(rng, append([]float64(nil), sample...), 0, limit)
	}

	scores := model.NaNs(len(closes))
	norm := averagePathLength(psi)
	for _, i := range finite {
		total := 0.0
		for _, tree := range trees {
			total += pathLength(tree, closes[i], 0)
		}
		if norm == 0 {
			scores[i] = 0.5
			continue
		}
		scores[i] = math.Pow(2, -(total/float64(len(trees)))/norm)
	}
	return scores
}

func grow(rng *rand.Rand, data []float64, depth, limit int) *iNode {
	if depth >= limit || len(data) <= 1 {
		return &iNode{size: len(data)}
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return &iNode{size: len(data)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range data {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &iNode{
		split: split,
		left:  grow(rng, left, depth+1, limit),
		right: grow(rng, right, depth+1, limit),
	}
}

func pathLength(n *iNode, x float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + averagePathLength(n.size)
	}
	if x < n.split {
		return pathLength(n.left, x, depth+1)
	}
	return pathLength(n.right, x, depth+1)
}

// averagePathLength is c(n), the mean unsuccessful-search depth of a binary
// search tree with n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	m := float64(n - 1)
	return 2*(math.Log(m)+eulerGamma) - 2*m/float64(n)
}
