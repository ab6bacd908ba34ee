package changelog

import (
	"sort"

	vo "ontology-backend/domain/core/valueobjects"
)

// Change markers set on diffed links and collections.
const (
	MarkAdded   = "added"
	MarkRemoved = "removed"
	MarkSort    = "sort"
)

// CollectionDiff is a collection annotated with what happened to it and to
// each of its links.
type CollectionDiff struct {
	CollectionName string    `json:"collectionName" dynamodbav:"collectionName"`
	Nodes          []vo.Link `json:"nodes" dynamodbav:"nodes"`
	Change         string    `json:"change,omitempty" dynamodbav:"change,omitempty"`
	ChangeType     string    `json:"changeType,omitempty" dynamodbav:"changeType,omitempty"`
}

// DiffCollections merges old and new link collections, marking each link as
// added or removed. A link that moved between collections is marked on both
// sides with ChangeType "sort".
func DiffCollections(oldValue, newValue vo.Collections) []CollectionDiff {
	oldByName := indexByName(oldValue)
	newByName := indexByName(newValue)
	oldHome := homeOf(oldValue)
	newHome := homeOf(newValue)

	names := make([]string, 0, len(oldValue)+len(newValue))
	seen := map[string]bool{}
	for _, cs := range []vo.Collections{oldValue, newValue} {
		for _, c := range cs {
			if !seen[c.CollectionName] {
				seen[c.CollectionName] = true
				names = append(names, c.CollectionName)
			}
		}
	}

	result := make([]CollectionDiff, 0, len(names))
	for _, name := range names {
		oldCol, inOld := oldByName[name]
		newCol, inNew := newByName[name]

		oldLinks := linksByID(oldCol.Nodes)
		newLinks := linksByID(newCol.Nodes)

		var merged []vo.Link
		visited := map[string]bool{}
		for _, l := range append(append([]vo.Link{}, oldCol.Nodes...), newCol.Nodes...) {
			if visited[l.ID] {
				continue
			}
			visited[l.ID] = true
			o, wasOld := oldLinks[l.ID]
			n, isNew := newLinks[l.ID]
			switch {
			case !wasOld && isNew:
				n.Change = MarkAdded
				if from, ok := oldHome[l.ID]; ok && from != name {
					n.ChangeType = MarkSort
				}
				merged = append(merged, n)
			case wasOld && !isNew:
				o.Change = MarkRemoved
				if to, ok := newHome[l.ID]; ok && to != name {
					o.ChangeType = MarkSort
				}
				merged = append(merged, o)
			default:
				merged = append(merged, vo.Link{ID: n.ID, Title: firstNonEmpty(n.Title, o.Title)})
			}
		}

		if inNew {
			order := make(map[string]int, len(newCol.Nodes))
			for i, l := range newCol.Nodes {
				order[l.ID] = i
			}
			sort.SliceStable(merged, func(i, j int) bool {
				a, aIn := order[merged[i].ID]
				b, bIn := order[merged[j].ID]
				switch {
				case aIn && bIn:
					return a < b
				case aIn:
					return true
				default:
					return false
				}
			})
		}

		d := CollectionDiff{CollectionName: name, Nodes: merged}
		if d.Nodes == nil {
			d.Nodes = []vo.Link{}
		}
		switch {
		case !inOld && inNew:
			d.Change = MarkAdded
		case inOld && !inNew:
			d.Change = MarkRemoved
		}
		result = append(result, d)
	}
	return result
}

// DiffSortedCollections annotates a reordering of collections. Collections
// on the longest common subsequence of names are stable. The rest are
// marked as moved (present on both sides) or as added/removed.
func DiffSortedCollections(oldValue, newValue vo.Collections) []CollectionDiff {
	oldNames := oldValue.Names()
	newNames := newValue.Names()
	stable := lcsNames(oldNames, newNames)
	inOld := make(map[string]bool, len(oldNames))
	for _, n := range oldNames {
		inOld[n] = true
	}
	inNew := make(map[string]bool, len(newNames))
	for _, n := range newNames {
		inNew[n] = true
	}

	result := make([]CollectionDiff, 0, len(newValue)+len(oldValue))
	for _, c := range newValue {
		d := CollectionDiff{CollectionName: c.CollectionName, Nodes: c.Nodes}
		switch {
		case stable[c.CollectionName]:
		case inOld[c.CollectionName]:
			d.Change, d.ChangeType = MarkAdded, MarkSort
		default:
			d.Change = MarkAdded
		}
		result = append(result, d)
	}

	type removal struct {
		index int
		diff  CollectionDiff
	}
	var removals []removal
	for i, c := range oldValue {
		if stable[c.CollectionName] {
			continue
		}
		d := CollectionDiff{CollectionName: c.CollectionName, Nodes: c.Nodes, Change: MarkRemoved}
		if inNew[c.CollectionName] {
			d.ChangeType = MarkSort
		}
		removals = append(removals, removal{index: i, diff: d})
	}
	sort.SliceStable(removals, func(i, j int) bool { return removals[i].index > removals[j].index })
	for _, r := range removals {
		at := r.index
		if at > len(result) {
			at = len(result)
		}
		result = append(result[:at], append([]CollectionDiff{r.diff}, result[at:]...)...)
	}
	return result
}

func lcsNames(a, b []string) map[string]bool {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	out := map[string]bool{}
	for i, j := m, n; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			out[a[i-1]] = true
			i--
			j--
		case dp[i-1][j] > dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	return out
}

func indexByName(cs vo.Collections) map[string]vo.Collection {
	out := make(map[string]vo.Collection, len(cs))
	for _, c := range cs {
		out[c.CollectionName] = c
	}
	return out
}

func homeOf(cs vo.Collections) map[string]string {
	out := map[string]string{}
	for _, c := range cs {
		for _, l := range c.Nodes {
			out[l.ID] = c.CollectionName
		}
	}
	return out
}

func linksByID(links []vo.Link) map[string]vo.Link {
	out := make(map[string]vo.Link, len(links))
	for _, l := range links {
		out[l.ID] = l
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
