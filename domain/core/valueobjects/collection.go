package valueobjects

import (
	"errors"
	"fmt"
	"regexp"
)

// MainCollection is the default, undeletable collection of every relation.
const MainCollection = "main"

// MaxCollectionNameLength bounds user-defined collection names.
const MaxCollectionNameLength = 50

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var (
	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrReservedCollection = errors.New(`collection "main" is reserved`)
	ErrLinkNotFound       = errors.New("link not found in collection")
)

// Link is a reference to another node inside a collection.
type Link struct {
	ID            string `json:"id" dynamodbav:"id"`
	Title         string `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Optional      bool   `json:"optional,omitempty" dynamodbav:"optional,omitempty"`
	Change        string `json:"change,omitempty" dynamodbav:"change,omitempty"`
	ChangeType    string `json:"changeType,omitempty" dynamodbav:"changeType,omitempty"`
	InheritedFrom string `json:"inheritedFrom,omitempty" dynamodbav:"inheritedFrom,omitempty"`
}

// Collection is a named, ordered group of links.
type Collection struct {
	CollectionName string `json:"collectionName" dynamodbav:"collectionName"`
	Nodes          []Link `json:"nodes" dynamodbav:"nodes"`
}

// Collections is the value of every link-valued property.
type Collections []Collection

// ValidateCollectionName checks a user supplied collection name.
func ValidateCollectionName(name string) error {
	switch {
	case name == "":
		return errors.New("collection name is required")
	case len(name) > MaxCollectionNameLength:
		return fmt.Errorf("collection name must not exceed %d characters", MaxCollectionNameLength)
	case !collectionNamePattern.MatchString(name):
		return errors.New("collection name can only contain letters, numbers, hyphens, and underscores")
	}
	return nil
}

// NewCollections returns a relation holding only an empty main collection.
func NewCollections(ids ...string) Collections {
	links := make([]Link, 0, len(ids))
	for _, id := range ids {
		links = append(links, Link{ID: id})
	}
	return Collections{{CollectionName: MainCollection, Nodes: links}}
}

// Normalize brings arbitrary input into canonical shape. Empty input becomes
// a single empty main collection. Input without any named collection is merged
// into main with empty IDs dropped. Otherwise main is guaranteed to exist.
func Normalize(in Collections) Collections {
	if len(in) == 0 {
		return NewCollections()
	}

	named := false
	for _, c := range in {
		if c.CollectionName != "" && c.CollectionName != MainCollection {
			named = true
			break
		}
	}

	if !named {
		main := Collection{CollectionName: MainCollection, Nodes: []Link{}}
		seen := make(map[string]bool)
		for _, c := range in {
			for _, l := range c.Nodes {
				if l.ID == "" || seen[l.ID] {
					continue
				}
				seen[l.ID] = true
				main.Nodes = append(main.Nodes, l)
			}
		}
		return Collections{main}
	}

	out := make(Collections, 0, len(in)+1)
	hasMain := false
	for _, c := range in {
		name := c.CollectionName
		if name == "" {
			name = MainCollection
		}
		if name == MainCollection {
			if hasMain {
				idx := out.index(MainCollection)
				out[idx].Nodes = append(out[idx].Nodes, c.Nodes...)
				continue
			}
			hasMain = true
		}
		nodes := make([]Link, 0, len(c.Nodes))
		for _, l := range c.Nodes {
			if l.ID != "" {
				nodes = append(nodes, l)
			}
		}
		out = append(out, Collection{CollectionName: name, Nodes: nodes})
	}
	if !hasMain {
		out = append(Collections{{CollectionName: MainCollection, Nodes: []Link{}}}, out...)
	}
	return out
}

// Clone deep-copies the collections.
func (cs Collections) Clone() Collections {
	if cs == nil {
		return nil
	}
	out := make(Collections, len(cs))
	for i, c := range cs {
		nodes := make([]Link, len(c.Nodes))
		copy(nodes, c.Nodes)
		out[i] = Collection{CollectionName: c.CollectionName, Nodes: nodes}
	}
	return out
}

func (cs Collections) index(name string) int {
	for i, c := range cs {
		if c.CollectionName == name {
			return i
		}
	}
	return -1
}

// Has reports whether a collection with the given name exists.
func (cs Collections) Has(name string) bool {
	return cs.index(name) >= 0
}

// Names returns collection names in order.
func (cs Collections) Names() []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.CollectionName)
	}
	return names
}

// IDs returns every linked node ID in collection order.
func (cs Collections) IDs() []string {
	var ids []string
	for _, c := range cs {
		for _, l := range c.Nodes {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// First returns the first linked ID or "".
func (cs Collections) First() string {
	for _, c := range cs {
		if len(c.Nodes) > 0 {
			return c.Nodes[0].ID
		}
	}
	return ""
}

// Count returns the number of links across collections.
func (cs Collections) Count() int {
	n := 0
	for _, c := range cs {
		n += len(c.Nodes)
	}
	return n
}

// Contains reports whether id is linked in any collection.
func (cs Collections) Contains(id string) bool {
	for _, c := range cs {
		for _, l := range c.Nodes {
			if l.ID == id {
				return true
			}
		}
	}
	return false
}

// CollectionOf returns the collection holding id, or "".
func (cs Collections) CollectionOf(id string) string {
	for _, c := range cs {
		for _, l := range c.Nodes {
			if l.ID == id {
				return c.CollectionName
			}
		}
	}
	return ""
}

// Add links id into collection (main when empty), creating it if missing.
// It is a no-op when the link already exists anywhere.
func (cs *Collections) Add(link Link, collection string) bool {
	if link.ID == "" || cs.Contains(link.ID) {
		return false
	}
	if collection == "" {
		collection = MainCollection
	}
	idx := cs.index(collection)
	if idx < 0 {
		*cs = append(*cs, Collection{CollectionName: collection, Nodes: []Link{}})
		idx = len(*cs) - 1
	}
	(*cs)[idx].Nodes = append((*cs)[idx].Nodes, link)
	return true
}

// Remove unlinks id from every collection.
func (cs *Collections) Remove(id string) bool {
	removed := false
	for i := range *cs {
		nodes := (*cs)[i].Nodes[:0]
		for _, l := range (*cs)[i].Nodes {
			if l.ID == id {
				removed = true
				continue
			}
			nodes = append(nodes, l)
		}
		(*cs)[i].Nodes = nodes
	}
	return removed
}

// Move transfers links from one collection to another, keeping their order.
func (cs *Collections) Move(ids []string, from, to string) error {
	src, dst := cs.index(from), cs.index(to)
	if src < 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, from)
	}
	if dst < 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, to)
	}
	if src == dst {
		return nil
	}
	for _, id := range ids {
		pos := -1
		for i, l := range (*cs)[src].Nodes {
			if l.ID == id {
				pos = i
				break
			}
		}
		if pos < 0 {
			return fmt.Errorf("%w: %s in %s", ErrLinkNotFound, id, from)
		}
		link := (*cs)[src].Nodes[pos]
		(*cs)[src].Nodes = append((*cs)[src].Nodes[:pos], (*cs)[src].Nodes[pos+1:]...)
		(*cs)[dst].Nodes = append((*cs)[dst].Nodes, link)
	}
	return nil
}

// Reorder moves each id to the matching index within collection. Moves are
// applied in request order and indices past the end clamp to the tail.
func (cs *Collections) Reorder(ids []string, newIndices []int, collection string) error {
	if len(ids) != len(newIndices) {
		return errors.New("newIndices must have the same length as nodes")
	}
	if collection == "" {
		collection = MainCollection
	}
	idx := cs.index(collection)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	nodes := (*cs)[idx].Nodes
	for i, id := range ids {
		pos := -1
		for j, l := range nodes {
			if l.ID == id {
				pos = j
				break
			}
		}
		if pos < 0 {
			return fmt.Errorf("%w: %s in %s", ErrLinkNotFound, id, collection)
		}
		link := nodes[pos]
		nodes = append(nodes[:pos], nodes[pos+1:]...)
		target := newIndices[i]
		if target < 0 {
			return fmt.Errorf("invalid index %d", target)
		}
		if target > len(nodes) {
			target = len(nodes)
		}
		nodes = append(nodes[:target], append([]Link{link}, nodes[target:]...)...)
	}
	(*cs)[idx].Nodes = nodes
	return nil
}

// CreateCollection appends an empty named collection.
func (cs *Collections) CreateCollection(name string) error {
	if name == MainCollection {
		return ErrReservedCollection
	}
	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	if cs.Has(name) {
		return fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}
	*cs = append(*cs, Collection{CollectionName: name, Nodes: []Link{}})
	return nil
}

// DeleteCollection removes a named collection, moving its links to main.
func (cs *Collections) DeleteCollection(name string) error {
	if name == MainCollection {
		return ErrReservedCollection
	}
	idx := cs.index(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	moved := (*cs)[idx].Nodes
	*cs = append((*cs)[:idx], (*cs)[idx+1:]...)
	main := cs.index(MainCollection)
	if main < 0 {
		*cs = append(Collections{{CollectionName: MainCollection, Nodes: []Link{}}}, *cs...)
		main = 0
	}
	for _, l := range moved {
		if !cs.Contains(l.ID) {
			(*cs)[main].Nodes = append((*cs)[main].Nodes, l)
		}
	}
	return nil
}

// RenameCollection renames a user-defined collection.
func (cs *Collections) RenameCollection(oldName, newName string) error {
	if oldName == MainCollection || newName == MainCollection {
		return ErrReservedCollection
	}
	if err := ValidateCollectionName(newName); err != nil {
		return err
	}
	idx := cs.index(oldName)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, oldName)
	}
	if oldName != newName && cs.Has(newName) {
		return fmt.Errorf("%w: %s", ErrCollectionExists, newName)
	}
	(*cs)[idx].CollectionName = newName
	return nil
}

// SortCollections reorders collections to follow order. Names missing from
// order keep their relative position after the listed ones.
func (cs *Collections) SortCollections(order []string) error {
	seen := make(map[string]bool, len(order))
	sorted := make(Collections, 0, len(*cs))
	for _, name := range order {
		idx := cs.index(name)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		sorted = append(sorted, (*cs)[idx])
	}
	for _, c := range *cs {
		if !seen[c.CollectionName] {
			sorted = append(sorted, c)
		}
	}
	*cs = sorted
	return nil
}
