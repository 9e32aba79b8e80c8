package boost

// Node is one tree node. Internal nodes send x to Left when x[Feature] <= Threshold.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Tree is stored flat with the root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	data     *binned
	residual []float64
	features []int
	opts     Options
	gains    []float64
	tree     *Tree

	sums   []float64
	counts []int
}

func newTreeBuilder(data *binned, residual []float64, features []int, opts Options, gains []float64) *treeBuilder {
	maxBins := 0
	for _, th := range data.thresholds {
		if len(th)+1 > maxBins {
			maxBins = len(th) + 1
		}
	}
	return &treeBuilder{
		data:     data,
		residual: residual,
		features: features,
		opts:     opts,
		gains:    gains,
		tree:     &Tree{},
		sums:     make([]float64, maxBins),
		counts:   make([]int, maxBins),
	}
}

type split struct {
	feature int
	bin     int
	gain    float64
}

// grow builds the subtree for rows and returns its node index. rows is
// reordered in place.
func (b *treeBuilder) grow(rows []int, depth int) int {
	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{})

	var g float64
	for _, r := range rows {
		g += b.residual[r]
	}
	n := float64(len(rows))
	leaf := Node{Leaf: true, Value: b.opts.LearningRate * g / (n + b.opts.Lambda)}

	if depth >= b.opts.MaxDepth || len(rows) < 2*b.opts.MinSamplesLeaf {
		b.tree.Nodes[idx] = leaf
		return idx
	}

	best, ok := b.bestSplit(rows, g)
	if !ok {
		b.tree.Nodes[idx] = leaf
		return idx
	}

	codes := b.data.codes[best.feature]
	lo, hi := 0, len(rows)-1
	for lo <= hi {
		if int(codes[rows[lo]]) <= best.bin {
			lo++
			continue
		}
		rows[lo], rows[hi] = rows[hi], rows[lo]
		hi--
	}
	b.gains[best.feature] += best.gain

	left := b.grow(rows[:lo], depth+1)
	right := b.grow(rows[lo:], depth+1)
	b.tree.Nodes[idx] = Node{
		Feature:   best.feature,
		Threshold: b.data.thresholds[best.feature][best.bin],
		Left:      left,
		Right:     right,
	}
	return idx
}

// bestSplit scans the histogram of every sampled feature. The gain is the
// reduction in regularised squared error: GL²/(nL+λ) + GR²/(nR+λ) - G²/(n+λ).
func (b *treeBuilder) bestSplit(rows []int, g float64) (split, bool) {
	lambda := b.opts.Lambda
	minLeaf := b.opts.MinSamplesLeaf
	total := len(rows)
	parent := g * g / (float64(total) + lambda)

	var best split
	found := false
	for _, f := range b.features {
		bins := len(b.data.thresholds[f]) + 1
		if bins < 2 {
			continue
		}
		sums, counts := b.sums[:bins], b.counts[:bins]
		for k := range sums {
			sums[k] = 0
			counts[k] = 0
		}
		codes := b.data.codes[f]
		for _, r := range rows {
			c := codes[r]
			sums[c] += b.residual[r]
			counts[c]++
		}

		var gl float64
		nl := 0
		for bin := 0; bin < bins-1; bin++ {
			gl += sums[bin]
			nl += counts[bin]
			nr := total - nl
			if nl < minLeaf || counts[bin] == 0 {
				continue
			}
			if nr < minLeaf {
				break
			}
			gr := g - gl
			gain := gl*gl/(float64(nl)+lambda) + gr*gr/(float64(nr)+lambda) - parent
			if gain > best.gain {
				best = split{feature: f, bin: bin, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
