// Package association mines front -> back item rules from transactions synthesized out of a
// typed relation list.
//
// Two kinds of transaction are derived:
//   - direct: each relation from a front-typed source to a back-typed target is a transaction
//     of exactly those two items;
//   - connector: every relation source collects its direct targets; when the targets contain
//     at least one front-typed and one back-typed item, those items form one transaction.
//
// Front and back may name the same type; an item is then never paired with itself and every
// transaction holds at least two distinct items.
package association

import (
	"sort"

	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// LinkType is the Type of links representing mined rules
const LinkType = "association"

// Options configures one mining run. Thresholds are expected in [0, 1].
type Options struct {
	FrontType     string
	BackType      string
	MinSupport    float64
	MinConfidence float64
}

// Transaction is one synthesized itemset
type Transaction struct {
	Key   string   `json:"key"` // "source->target" for direct, the connector name otherwise
	Items []string `json:"items"`
}

// Result holds rules sorted by lift descending plus the rule graph
type Result struct {
	Rules        []models.AssociationRule `json:"rules"`
	Nodes        []models.Node            `json:"nodes"`
	Links        []models.Link            `json:"links"`
	Transactions int                      `json:"transactions"`
}

// Transactions synthesizes direct and connector transactions
func Transactions(entities []models.Entity, relations []models.Relation, frontType, backType string) []Transaction {
	types := models.EntityTypes(entities)
	var txs []Transaction

	for _, r := range relations {
		if r.Source != r.Target && types[r.Source] == frontType && types[r.Target] == backType {
			txs = append(txs, Transaction{Key: r.Source + "->" + r.Target, Items: []string{r.Source, r.Target}})
		}
	}

	targets := make(map[string][]string)
	for _, r := range relations {
		targets[r.Source] = append(targets[r.Source], r.Target)
	}
	connectors := make([]string, 0, len(targets))
	for source := range targets {
		connectors = append(connectors, source)
	}
	sort.Strings(connectors)

	for _, connector := range connectors {
		var items []string
		seen := make(map[string]bool)
		hasFront, hasBack := false, false
		for _, target := range targets[connector] {
			t := types[target]
			if t != frontType && t != backType {
				continue
			}
			if seen[target] || target == connector {
				continue
			}
			seen[target] = true
			items = append(items, target)
			hasFront = hasFront || t == frontType
			hasBack = hasBack || t == backType
		}
		if hasFront && hasBack && len(items) >= 2 {
			txs = append(txs, Transaction{Key: connector, Items: items})
		}
	}

	return txs
}

type pair struct {
	front string
	back  string
}

// Mine derives the rules passing both thresholds
func Mine(entities []models.Entity, relations []models.Relation, opts Options) Result {
	result := Result{
		Rules: []models.AssociationRule{},
		Nodes: []models.Node{},
		Links: []models.Link{},
	}

	types := models.EntityTypes(entities)
	txs := Transactions(entities, relations, opts.FrontType, opts.BackType)
	result.Transactions = len(txs)
	if len(txs) == 0 {
		return result
	}
	total := float64(len(txs))

	itemCount := make(map[string]int)
	pairCount := make(map[pair]int)
	var pairOrder []pair

	for _, tx := range txs {
		var fronts, backs []string
		for _, item := range tx.Items {
			itemCount[item]++
			if types[item] == opts.FrontType {
				fronts = append(fronts, item)
			}
			if types[item] == opts.BackType {
				backs = append(backs, item)
			}
		}
		for _, f := range fronts {
			for _, b := range backs {
				if f == b {
					continue
				}
				p := pair{front: f, back: b}
				if pairCount[p] == 0 {
					pairOrder = append(pairOrder, p)
				}
				pairCount[p]++
			}
		}
	}

	for _, p := range pairOrder {
		cooccur := pairCount[p]
		support := float64(cooccur) / total
		if support < opts.MinSupport {
			continue
		}
		frontSupport := float64(itemCount[p.front]) / total
		confidence := support / frontSupport
		if confidence < opts.MinConfidence {
			continue
		}
		backSupport := float64(itemCount[p.back]) / total
		result.Rules = append(result.Rules, models.AssociationRule{
			Source:     p.front,
			Target:     p.back,
			Support:    support,
			Confidence: confidence,
			Lift:       confidence / backSupport,
			Cooccur:    cooccur,
		})
	}

	sort.SliceStable(result.Rules, func(i, j int) bool {
		return result.Rules[i].Lift > result.Rules[j].Lift
	})

	result.Nodes, result.Links = ruleGraph(result.Rules, types)
	return result
}

func ruleGraph(rules []models.AssociationRule, types map[string]string) ([]models.Node, []models.Link) {
	nodes := []models.Node{}
	links := make([]models.Link, 0, len(rules))
	seen := make(map[string]bool)

	addNode := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		nodes = append(nodes, models.Node{ID: id, Group: types[id]})
	}

	for _, rule := range rules {
		addNode(rule.Source)
		addNode(rule.Target)
		links = append(links, models.Link{
			Source: rule.Source,
			Target: rule.Target,
			Type:   LinkType,
			Weight: models.Float(float64(rule.Cooccur)),
			Association: &models.Association{
				Support:    rule.Support,
				Confidence: rule.Confidence,
				Lift:       rule.Lift,
			},
		})
	}

	return nodes, links
}
