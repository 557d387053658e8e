package model

import (
	"errors"
	"fmt"
	"slices"
)

// ---------------------------
// Types
// ---------------------------

// Leaf marks a missing child in the node arrays.
const Leaf = -1

// Tree is a fitted CART tree stored as parallel node arrays, node 0 being the
// root. Rows with x[Feature[i]] <= Threshold[i] go to ChildrenLeft[i].
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"` // per-node class counts or fractions, aligned with Forest.Classes
	Cover         []float64   `json:"cover"` // weighted training samples reaching each node
}

// Forest is a random-forest classifier: class probabilities are the mean of
// the per-tree leaf distributions.
type Forest struct {
	Classes   []int  `json:"classes"`
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`

	positive int // index of class 1 in Classes
}

// ---------------------------
// Validation
// ---------------------------

// Validate checks the forest is internally consistent and predicts class 1
// from nFeatures inputs. It must be called before PredictProba or Explain.
func (f *Forest) Validate(nFeatures int) error {
	if f.NFeatures != nFeatures {
		return fmt.Errorf("forest: trained on %d features, schema has %d", f.NFeatures, nFeatures)
	}
	f.positive = slices.Index(f.Classes, 1)
	if f.positive < 0 {
		return errors.New("forest: classes do not include the positive label 1")
	}
	if len(f.Trees) == 0 {
		return errors.New("forest: no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(nFeatures, len(f.Classes)); err != nil {
			return fmt.Errorf("forest: tree %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n ||
		len(t.Value) != n || len(t.Cover) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if len(t.Value[i]) != nClasses {
			return fmt.Errorf("node %d: %d class values, want %d", i, len(t.Value[i]), nClasses)
		}
		if t.Cover[i] <= 0 {
			return fmt.Errorf("node %d: non-positive cover", i)
		}
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == Leaf {
			if r != Leaf {
				return fmt.Errorf("node %d: only one child", i)
			}
			continue
		}
		// children are laid out after their parent, so walks terminate
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, t.Feature[i])
		}
	}
	return nil
}

// ---------------------------
// Prediction
// ---------------------------

// PredictProba returns p(y=1) for a single standardised row.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if len(x) != f.NFeatures {
		return 0, fmt.Errorf("forest: got %d features, want %d", len(x), f.NFeatures)
	}
	sum := 0.0
	for i := range f.Trees {
		t := &f.Trees[i]
		sum += t.fraction(t.leaf(x), f.positive)
	}
	return clamp01(sum / float64(len(f.Trees))), nil
}

// leaf walks x down to its leaf node.
func (t *Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != Leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}

// fraction normalises a node's class values and returns the share of class k.
func (t *Tree) fraction(node, k int) float64 {
	total := 0.0
	for _, v := range t.Value[node] {
		total += v
	}
	if total == 0 {
		return 0
	}
	return t.Value[node][k] / total
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
