package models

import (
	"fmt"
)

// Entity is a typed, named vertex of the raw input graph. Name is the global identifier.
type Entity struct {
	Type string `json:"type" yaml:"type" validate:"required"` // category label, e.g. "症状"
	Name string `json:"name" yaml:"name" validate:"required"` // unique across entities
}

// Relation is a directed, labelled edge between two entity names
type Relation struct {
	Source   string `json:"source" yaml:"source" validate:"required"`
	Relation string `json:"relation" yaml:"relation"`
	Target   string `json:"target" yaml:"target" validate:"required"`
}

// Metrics holds per-node analytics. Every field is nil until an algorithm computes it.
type Metrics struct {
	Degree                *float64 `json:"degree,omitempty"`
	Betweenness           *float64 `json:"betweenness,omitempty"`
	Closeness             *float64 `json:"closeness,omitempty"`
	PageRank              *float64 `json:"pagerank,omitempty"`
	KCore                 *int     `json:"kCore,omitempty"`
	Community             *int     `json:"community,omitempty"`
	ClusteringCoefficient *float64 `json:"clusteringCoefficient,omitempty"`
}

// Node is a derived vertex. Group starts as the entity type and is overwritten with
// derived category keys (community id, kmeans cluster) for colouring.
type Node struct {
	ID       string         `json:"id" yaml:"id"`
	Group    string         `json:"group" yaml:"group"`
	Metrics  *Metrics       `json:"metrics,omitempty" yaml:"-"`
	Clusters map[string]int `json:"clusters,omitempty" yaml:"-"`
}

// Association carries rule metrics when a link represents a mined rule
type Association struct {
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
}

// Link is a derived edge referencing node ids
type Link struct {
	Source      string       `json:"source" yaml:"source"`
	Target      string       `json:"target" yaml:"target"`
	Type        string       `json:"type" yaml:"type"`
	Weight      *float64     `json:"weight,omitempty" yaml:"weight,omitempty"`
	Association *Association `json:"association,omitempty" yaml:"-"`
}

// Graph is a node/link pair as handed to the graph based algorithms
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
}

// DendrogramNode is one vertex of a binary merge tree.
// Leaves carry Name and IsLeaf; internal nodes carry exactly two children.
type DendrogramNode struct {
	Name     string            `json:"name,omitempty"`
	IsLeaf   bool              `json:"isLeaf,omitempty"`
	Distance float64           `json:"distance"`
	Children []*DendrogramNode `json:"children,omitempty"`
}

// AssociationRule is one front -> back rule that passed both thresholds
type AssociationRule struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
	Cooccur    int     `json:"cooccur"`
}

// Rank is one row of a ranking list
type Rank struct {
	ID  string  `json:"id"`
	Val float64 `json:"val"`
}

// NewLeaf creates a dendrogram leaf for the given node id
func NewLeaf(name string) *DendrogramNode {
	return &DendrogramNode{Name: name, IsLeaf: true, Distance: 0}
}

// NewMerge creates an internal dendrogram node joining left and right
func NewMerge(distance float64, left, right *DendrogramNode) *DendrogramNode {
	return &DendrogramNode{Distance: distance, Children: []*DendrogramNode{left, right}}
}

// Leaves returns the leaf names of the subtree in left-to-right order
func (d *DendrogramNode) Leaves() []string {
	if d == nil {
		return nil
	}
	if d.IsLeaf {
		return []string{d.Name}
	}
	var names []string
	for _, child := range d.Children {
		names = append(names, child.Leaves()...)
	}
	return names
}

// CountInternal returns the number of merge nodes in the subtree
func (d *DendrogramNode) CountInternal() int {
	if d == nil || d.IsLeaf {
		return 0
	}
	count := 1
	for _, child := range d.Children {
		count += child.CountInternal()
	}
	return count
}

// Validate checks the strictly-binary invariant of the tree
func (d *DendrogramNode) Validate() error {
	if d == nil {
		return nil
	}
	if d.IsLeaf {
		if len(d.Children) != 0 {
			return fmt.Errorf("leaf %q has %d children", d.Name, len(d.Children))
		}
		return nil
	}
	if len(d.Children) != 2 {
		return fmt.Errorf("internal node at distance %.4f has %d children, expected 2", d.Distance, len(d.Children))
	}
	for _, child := range d.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LinkWeight returns the link weight or 1 when unset
func (l Link) LinkWeight() float64 {
	if l.Weight == nil {
		return 1
	}
	return *l.Weight
}

// Float returns a pointer to v, used for optional weights and metrics
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// EntityTypes indexes entity names to their type. The first occurrence of a name wins.
func EntityTypes(entities []Entity) map[string]string {
	types := make(map[string]string, len(entities))
	for _, e := range entities {
		if _, exists := types[e.Name]; !exists {
			types[e.Name] = e.Type
		}
	}
	return types
}

// NodeIDs returns node ids in input order
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}
