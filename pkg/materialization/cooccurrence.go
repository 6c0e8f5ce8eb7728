// Package materialization projects a typed entity/relation graph onto one entity type:
// items that meet at a shared container become connected, weighted by the number of
// containers they share.
package materialization

import (
	"sort"

	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// LinkType is the Type carried by every co-occurrence link
const LinkType = "cooccurrence"

// PairKey identifies an unordered item pair; A < B lexicographically
type PairKey struct {
	A string
	B string
}

// NewPairKey canonicalises an item pair so both discovery orders collapse to one key
func NewPairKey(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

// CooccurrenceStats summarises one build
type CooccurrenceStats struct {
	Containers       int `json:"containers"`        // containers with at least one item
	Items            int `json:"items"`             // distinct items emitted as nodes
	Pairs            int `json:"pairs"`             // distinct item pairs emitted as links
	RelationsMatched int `json:"relations_matched"` // relations that registered an item
}

// CooccurrenceBuilder groups items by the container they meet at
type CooccurrenceBuilder struct {
	containerType string
	itemType      string
	types         map[string]string

	meetingGroups  map[string]map[string]bool // container -> item set
	containerOrder []string
	itemOrder      []string
	itemSeen       map[string]bool

	stats CooccurrenceStats
}

// NewCooccurrenceBuilder creates a builder for the given container/item type pair
func NewCooccurrenceBuilder(entities []models.Entity, containerType, itemType string) *CooccurrenceBuilder {
	return &CooccurrenceBuilder{
		containerType: containerType,
		itemType:      itemType,
		types:         models.EntityTypes(entities),
		meetingGroups: make(map[string]map[string]bool),
		itemSeen:      make(map[string]bool),
	}
}

// AddRelation registers the item endpoint of r under its container endpoint when r joins a
// container-typed entity to an item-typed entity in either direction. Other relations are ignored.
func (cb *CooccurrenceBuilder) AddRelation(r models.Relation) {
	sourceType, sourceKnown := cb.types[r.Source]
	targetType, targetKnown := cb.types[r.Target]
	if !sourceKnown || !targetKnown {
		return
	}

	var container, item string
	switch {
	case sourceType == cb.containerType && targetType == cb.itemType:
		container, item = r.Source, r.Target
	case sourceType == cb.itemType && targetType == cb.containerType:
		container, item = r.Target, r.Source
	default:
		return
	}

	group, exists := cb.meetingGroups[container]
	if !exists {
		group = make(map[string]bool)
		cb.meetingGroups[container] = group
		cb.containerOrder = append(cb.containerOrder, container)
	}
	group[item] = true

	if !cb.itemSeen[item] {
		cb.itemSeen[item] = true
		cb.itemOrder = append(cb.itemOrder, item)
	}
	cb.stats.RelationsMatched++
}

// Build emits item nodes in first-seen order and one weighted link per co-occurring pair,
// sorted by (source, target)
func (cb *CooccurrenceBuilder) Build() (models.Graph, CooccurrenceStats) {
	weights := make(map[PairKey]int)

	for _, container := range cb.containerOrder {
		items := make([]string, 0, len(cb.meetingGroups[container]))
		for item := range cb.meetingGroups[container] {
			items = append(items, item)
		}
		sort.Strings(items)

		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				weights[NewPairKey(items[i], items[j])]++
			}
		}
	}

	nodes := make([]models.Node, 0, len(cb.itemOrder))
	for _, item := range cb.itemOrder {
		nodes = append(nodes, models.Node{ID: item, Group: cb.itemType})
	}

	keys := make([]PairKey, 0, len(weights))
	for key := range weights {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})

	links := make([]models.Link, 0, len(keys))
	for _, key := range keys {
		links = append(links, models.Link{
			Source: key.A,
			Target: key.B,
			Type:   LinkType,
			Weight: models.Float(float64(weights[key])),
		})
	}

	stats := cb.stats
	stats.Containers = len(cb.containerOrder)
	stats.Items = len(nodes)
	stats.Pairs = len(links)

	return models.Graph{Nodes: nodes, Links: links}, stats
}

// BuildCooccurrence derives the one-mode item graph for the given container/item types
func BuildCooccurrence(entities []models.Entity, relations []models.Relation, containerType, itemType string) models.Graph {
	g, _ := BuildCooccurrenceWithStats(entities, relations, containerType, itemType)
	return g
}

// BuildCooccurrenceWithStats is BuildCooccurrence that also reports build statistics
func BuildCooccurrenceWithStats(entities []models.Entity, relations []models.Relation, containerType, itemType string) (models.Graph, CooccurrenceStats) {
	builder := NewCooccurrenceBuilder(entities, containerType, itemType)
	for _, r := range relations {
		builder.AddRelation(r)
	}
	return builder.Build()
}
