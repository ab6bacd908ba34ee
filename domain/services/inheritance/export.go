package inheritance

import (
	"slices"
	"strings"

	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
)

// categoryOrder is the display order of the top-level categories. Other
// roots follow in title order.
var categoryOrder = []string{
	"WHAT: Activities and Objects",
	"WHO: Actors",
	"WHY: Evaluation",
	"Where: Context",
	"ONet",
}

// TreeNode is one entry of an exported ontology. Named specialization
// collections other than main appear as group entries titled "[name]".
type TreeNode struct {
	ID              string      `json:"id,omitempty"`
	Title           string      `json:"title"`
	Description     any         `json:"description,omitempty"`
	Parts           []string    `json:"parts"`
	Generalizations []string    `json:"generalizations"`
	Specializations []*TreeNode `json:"specializations"`
}

// ExportTree builds the specialization tree of every node in g, starting at
// the top-level categories. Descriptions and parts are taken from the node
// that owns them. A node reached twice on the same path is cut off.
func ExportTree(g *Graph) []*TreeNode {
	var roots []*entities.Node
	for _, n := range g.nodes {
		if isTopLevel(n) {
			roots = append(roots, n)
		}
	}
	slices.SortFunc(roots, func(a, b *entities.Node) int {
		if d := categoryRank(a.Title) - categoryRank(b.Title); d != 0 {
			return d
		}
		return strings.Compare(a.Title, b.Title)
	})

	e := exporter{g: g, onPath: map[string]bool{}}
	out := make([]*TreeNode, 0, len(roots))
	for _, n := range roots {
		out = append(out, e.node(n))
	}
	return out
}

func isTopLevel(n *entities.Node) bool {
	return n.Category || n.Root == n.ID || n.Generalizations.Count() == 0
}

func categoryRank(title string) int {
	if i := slices.Index(categoryOrder, strings.TrimSpace(title)); i >= 0 {
		return i
	}
	return len(categoryOrder)
}

type exporter struct {
	g      *Graph
	onPath map[string]bool
}

func (e *exporter) node(n *entities.Node) *TreeNode {
	e.onPath[n.ID] = true
	defer delete(e.onPath, n.ID)

	generalizations := e.titles(firstCollection(n.Generalizations))
	out := &TreeNode{
		ID:              n.ID,
		Title:           strings.TrimSpace(n.Title),
		Description:     e.owned(n, vo.PropertyDescription),
		Parts:           e.titles(e.parts(n)),
		Generalizations: generalizations,
		Specializations: []*TreeNode{},
	}

	for _, c := range n.Specializations {
		children := e.children(c)
		if c.CollectionName == vo.MainCollection {
			out.Specializations = append(out.Specializations, children...)
			continue
		}
		out.Specializations = append(out.Specializations, &TreeNode{
			Title:           "[" + c.CollectionName + "]",
			Generalizations: generalizations,
			Specializations: children,
		})
	}
	return out
}

func (e *exporter) children(c vo.Collection) []*TreeNode {
	out := []*TreeNode{}
	for _, l := range c.Nodes {
		child, ok := e.g.nodes[l.ID]
		if !ok || e.onPath[l.ID] {
			continue
		}
		out = append(out, e.node(child))
	}
	return out
}

// owned returns the value of property held by the node that owns it, or
// the node's own value when the owner is not in the graph.
func (e *exporter) owned(n *entities.Node, property string) any {
	if src, err := ResolveSource(e.g, n.ID, property); err == nil {
		if owner, ok := e.g.nodes[src]; ok {
			if v, ok := owner.Properties[property]; ok && v != nil {
				return v
			}
		}
	}
	if v := n.Properties[property]; v != nil {
		return v
	}
	return ""
}

func (e *exporter) parts(n *entities.Node) []vo.Link {
	cs, _ := vo.AsCollections(e.owned(n, vo.PropertyParts))
	var links []vo.Link
	for _, c := range cs {
		links = append(links, c.Nodes...)
	}
	return links
}

// titles returns the trimmed titles of the linked nodes present in the graph.
func (e *exporter) titles(links []vo.Link) []string {
	out := []string{}
	for _, l := range links {
		if n, ok := e.g.nodes[l.ID]; ok {
			out = append(out, strings.TrimSpace(n.Title))
		}
	}
	return out
}

func firstCollection(cs vo.Collections) []vo.Link {
	if len(cs) == 0 {
		return nil
	}
	return cs[0].Nodes
}
