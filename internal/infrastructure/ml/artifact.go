package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Model kinds supported by the artifact format.
const (
	KindLogistic     = "logistic"
	KindTreeEnsemble = "tree_ensemble"
)

// Artifact is a serialized, pre-trained classifier. It is read-only once
// loaded and is replaced as a whole, never mutated.
type Artifact struct {
	Version      string      `json:"version"`
	FeatureNames []string    `json:"feature_names"`
	Scaler       Scaler      `json:"scaler"`
	Model        ModelParams `json:"model"`
}

// Scaler standardizes inputs as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ModelParams holds the parameters of either model kind.
type ModelParams struct {
	Kind string `json:"kind"`

	// logistic
	Weights []float64 `json:"weights,omitempty"`
	Bias    float64   `json:"bias,omitempty"`

	// tree_ensemble
	BaseMargin float64 `json:"base_margin,omitempty"`
	Trees      []Tree  `json:"trees,omitempty"`
}

// Tree is a binary regression tree stored as a flat node list rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split (Feature, Threshold, Left, Right) or a leaf (Leaf).
// Samples with x[Feature] < Threshold go left.
type Node struct {
	IsLeaf    bool    `json:"is_leaf,omitempty"`
	Leaf      float64 `json:"leaf,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// LoadArtifact reads and validates an artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading classifier artifact: %w", err)
	}
	return ParseArtifact(data)
}

// ParseArtifact decodes and validates an artifact.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding classifier artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks that the artifact matches the encoder and that every tree
// is well-formed.
func (a *Artifact) Validate() error {
	if a.Version == "" {
		return fmt.Errorf("artifact version is required")
	}

	n := len(FeatureNames)
	if len(a.FeatureNames) != n {
		return fmt.Errorf("artifact has %d features, encoder produces %d", len(a.FeatureNames), n)
	}
	for i, name := range a.FeatureNames {
		if name != FeatureNames[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, name, FeatureNames[i])
		}
	}

	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
		return fmt.Errorf("scaler dimensions do not match %d features", n)
	}
	for i, s := range a.Scaler.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("scaler scale[%d] must be finite and non-zero", i)
		}
	}

	switch a.Model.Kind {
	case KindLogistic:
		if len(a.Model.Weights) != n {
			return fmt.Errorf("logistic model has %d weights, expected %d", len(a.Model.Weights), n)
		}
	case KindTreeEnsemble:
		if len(a.Model.Trees) == 0 {
			return fmt.Errorf("tree ensemble has no trees")
		}
		for i, t := range a.Model.Trees {
			if err := t.validate(n); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unsupported model kind %q", a.Model.Kind)
	}
	return nil
}

// validate requires child indices to point forward, which rules out cycles
// and bounds traversal by the node count.
func (t Tree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, node := range t.Nodes {
		if node.IsLeaf {
			continue
		}
		if node.Feature < 0 || node.Feature >= features {
			return fmt.Errorf("node %d splits on unknown feature %d", i, node.Feature)
		}
		if node.Left <= i || node.Right <= i || node.Left >= len(t.Nodes) || node.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, node.Left, node.Right)
		}
	}
	return nil
}

// Predict returns the positive-class probability for one encoded row.
func (a *Artifact) Predict(row []float64) (float64, error) {
	if len(row) != len(a.Scaler.Mean) {
		return 0, fmt.Errorf("row has %d features, expected %d", len(row), len(a.Scaler.Mean))
	}

	scaled := make([]float64, len(row))
	for i, x := range row {
		scaled[i] = (x - a.Scaler.Mean[i]) / a.Scaler.Scale[i]
	}

	var margin float64
	switch a.Model.Kind {
	case KindLogistic:
		margin = a.Model.Bias
		for i, w := range a.Model.Weights {
			margin += w * scaled[i]
		}
	case KindTreeEnsemble:
		margin = a.Model.BaseMargin
		for _, t := range a.Model.Trees {
			margin += t.eval(scaled)
		}
	}

	p := sigmoid(margin)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("non-finite prediction")
	}
	return p, nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.IsLeaf {
			return node.Leaf
		}
		if x[node.Feature] < node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
