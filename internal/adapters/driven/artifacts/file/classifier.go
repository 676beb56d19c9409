package file

import (
	"fmt"
	"math"

	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Classifier kinds accepted in classifier.json.
const (
	KindLogistic     = "logistic"
	KindTreeEnsemble = "tree_ensemble"
)

// Tree ensemble aggregation modes.
const (
	// AggregateVote averages leaf values (class probabilities) across trees.
	AggregateVote = "vote"

	// AggregateLogitSum adds leaf values to a base score and applies the sigmoid.
	AggregateLogitSum = "logit_sum"
)

const defaultThreshold = 0.5

type classifierFile struct {
	Kind        string     `json:"kind"`
	NumFeatures int        `json:"num_features"`
	Threshold   *float64   `json:"threshold"`
	Weights     []float64  `json:"weights"`
	Intercept   float64    `json:"intercept"`
	Aggregation string     `json:"aggregation"`
	BaseScore   float64    `json:"base_score"`
	Trees       []treeFile `json:"trees"`
}

type treeFile struct {
	Nodes []treeNode `json:"nodes"`
}

// treeNode is one node of a binary decision tree. A node with Feature < 0
// is a leaf and carries Value. Rows go left when x[Feature] <= Threshold.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Ensure the classifiers implement the interface.
var (
	_ driven.Classifier = (*LogisticClassifier)(nil)
	_ driven.Classifier = (*TreeEnsemble)(nil)
)

// LogisticClassifier predicts 1 when sigmoid(w·x + b) >= threshold.
type LogisticClassifier struct {
	weights   []float64
	intercept float64
	threshold float64
}

// Predict classifies each row.
func (c *LogisticClassifier) Predict(rows [][]float64) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		if len(row) != len(c.weights) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(c.weights))
		}
		z := c.intercept
		for j, x := range row {
			z += c.weights[j] * x
		}
		out[i] = decide(sigmoid(z), c.threshold)
	}
	return out, nil
}

// NumFeatures is the row width the model expects.
func (c *LogisticClassifier) NumFeatures() int {
	return len(c.weights)
}

// TreeEnsemble evaluates a forest or boosted trees exported as node tables.
type TreeEnsemble struct {
	trees       []treeFile
	numFeatures int
	aggregation string
	baseScore   float64
	threshold   float64
}

// Predict classifies each row.
func (e *TreeEnsemble) Predict(rows [][]float64) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		if len(row) != e.numFeatures {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), e.numFeatures)
		}
		var sum float64
		for t := range e.trees {
			v, err := e.trees[t].eval(row)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", t, err)
			}
			sum += v
		}

		var p float64
		if e.aggregation == AggregateLogitSum {
			p = sigmoid(e.baseScore + sum)
		} else {
			p = sum / float64(len(e.trees))
		}
		out[i] = decide(p, e.threshold)
	}
	return out, nil
}

// NumFeatures is the row width the model expects.
func (e *TreeEnsemble) NumFeatures() int {
	return e.numFeatures
}

// eval walks the tree from the root. The walk is bounded by the node count
// so a malformed cyclic table fails instead of looping.
func (t *treeFile) eval(row []float64) (float64, error) {
	i := 0
	for range len(t.Nodes) {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("no leaf reached after %d steps", len(t.Nodes))
}

// buildClassifier validates the decoded file and returns the model.
func buildClassifier(f classifierFile) (driven.Classifier, error) {
	threshold := defaultThreshold
	if f.Threshold != nil {
		threshold = *f.Threshold
	}

	switch f.Kind {
	case KindLogistic:
		if len(f.Weights) == 0 {
			return nil, fmt.Errorf("logistic classifier has no weights")
		}
		if f.NumFeatures != 0 && f.NumFeatures != len(f.Weights) {
			return nil, fmt.Errorf("logistic classifier declares %d features but has %d weights",
				f.NumFeatures, len(f.Weights))
		}
		return &LogisticClassifier{
			weights:   f.Weights,
			intercept: f.Intercept,
			threshold: threshold,
		}, nil

	case KindTreeEnsemble:
		if len(f.Trees) == 0 {
			return nil, fmt.Errorf("tree ensemble has no trees")
		}
		if f.NumFeatures <= 0 {
			return nil, fmt.Errorf("tree ensemble must declare num_features")
		}
		agg := f.Aggregation
		if agg == "" {
			agg = AggregateVote
		}
		if agg != AggregateVote && agg != AggregateLogitSum {
			return nil, fmt.Errorf("unknown aggregation %q", f.Aggregation)
		}
		for ti, tree := range f.Trees {
			if err := tree.validate(f.NumFeatures); err != nil {
				return nil, fmt.Errorf("tree %d: %w", ti, err)
			}
		}
		return &TreeEnsemble{
			trees:       f.Trees,
			numFeatures: f.NumFeatures,
			aggregation: agg,
			baseScore:   f.BaseScore,
			threshold:   threshold,
		}, nil

	default:
		return nil, fmt.Errorf("unknown classifier kind %q", f.Kind)
	}
}

// validate checks that every split references a real feature and child.
func (t *treeFile) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Feature >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, numFeatures)
		}
		if n.Left <= 0 || n.Left >= len(t.Nodes) || n.Right <= 0 || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has child out of range", i)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func decide(p, threshold float64) int {
	if p >= threshold {
		return 1
	}
	return 0
}
