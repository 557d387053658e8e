package model

import "fmt"

// Explain returns one Tree SHAP value per feature for the class-1 output of
// the forest at x, using the path-dependent algorithm over node covers.
// Positive values push the probability up. Together with ExpectedValue they
// satisfy ExpectedValue() + sum(phi) == PredictProba(x).
func (f *Forest) Explain(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("forest: got %d features, want %d", len(x), f.NFeatures)
	}
	phi := make([]float64, f.NFeatures)
	for i := range f.Trees {
		s := shapState{tree: &f.Trees[i], x: x, phi: phi, class: f.positive}
		s.recurse(0, 0, nil, 1, 1, -1)
	}
	for j := range phi {
		phi[j] /= float64(len(f.Trees))
	}
	return phi, nil
}

// ExpectedValue is the cover-weighted mean class-1 output over the training
// distribution, i.e. the prediction with no feature known.
func (f *Forest) ExpectedValue() float64 {
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].expected(0, f.positive)
	}
	return sum / float64(len(f.Trees))
}

func (t *Tree) expected(node, k int) float64 {
	l, r := t.ChildrenLeft[node], t.ChildrenRight[node]
	if l == Leaf {
		return t.fraction(node, k)
	}
	return (t.Cover[l]*t.expected(l, k) + t.Cover[r]*t.expected(r, k)) / (t.Cover[l] + t.Cover[r])
}

// pathElem is one entry of the unique feature path from the root.
type pathElem struct {
	feature int
	zero    float64 // fraction of zero paths (feature unknown) flowing through
	one     float64 // fraction of one paths (feature known) flowing through
	weight  float64
}

type shapState struct {
	tree  *Tree
	x     []float64
	phi   []float64
	class int
}

func (s *shapState) recurse(node, depth int, parent []pathElem, zero, one float64, feature int) {
	path := make([]pathElem, depth+1, depth+2)
	copy(path, parent)
	extendPath(path, depth, zero, one, feature)

	t := s.tree
	if t.ChildrenLeft[node] == Leaf {
		v := t.fraction(node, s.class)
		for i := 1; i <= depth; i++ {
			w := unwoundPathSum(path, depth, i)
			el := path[i]
			s.phi[el.feature] += w * (el.one - el.zero) * v
		}
		return
	}

	split := t.Feature[node]
	hot, cold := t.ChildrenLeft[node], t.ChildrenRight[node]
	if s.x[split] > t.Threshold[node] {
		hot, cold = cold, hot
	}
	cover := t.Cover[node]
	hotZero := t.Cover[hot] / cover
	coldZero := t.Cover[cold] / cover

	// undo an earlier split on the same feature
	inZero, inOne := 1.0, 1.0
	k := 0
	for ; k <= depth; k++ {
		if path[k].feature == split {
			break
		}
	}
	if k != depth+1 {
		inZero, inOne = path[k].zero, path[k].one
		unwindPath(path, depth, k)
		depth--
	}

	s.recurse(hot, depth+1, path, hotZero*inZero, inOne, split)
	s.recurse(cold, depth+1, path, coldZero*inZero, 0, split)
}

func extendPath(path []pathElem, depth int, zero, one float64, feature int) {
	w := 0.0
	if depth == 0 {
		w = 1
	}
	path[depth] = pathElem{feature: feature, zero: zero, one: one, weight: w}
	for i := depth - 1; i >= 0; i-- {
		path[i+1].weight += one * path[i].weight * float64(i+1) / float64(depth+1)
		path[i].weight = zero * path[i].weight * float64(depth-i) / float64(depth+1)
	}
}

func unwindPath(path []pathElem, depth, k int) {
	one, zero := path[k].one, path[k].zero
	next := path[depth].weight
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * float64(depth+1) / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(depth-i)/float64(depth+1)
		} else {
			path[i].weight = path[i].weight * float64(depth+1) / (zero * float64(depth-i))
		}
	}
	for i := k; i < depth; i++ {
		path[i].feature = path[i+1].feature
		path[i].zero = path[i+1].zero
		path[i].one = path[i+1].one
	}
}

func unwoundPathSum(path []pathElem, depth, k int) float64 {
	one, zero := path[k].one, path[k].zero
	next := path[depth].weight
	total := 0.0
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * float64(depth+1) / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(depth-i)/float64(depth+1)
		} else {
			total += path[i].weight / zero / (float64(depth-i) / float64(depth+1))
		}
	}
	return total
}
