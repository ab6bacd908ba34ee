package inheritance

// Rename moves a property to a new name.
type Rename struct {
	From string
	To   string
}

// Addition is a property introduced on the origin and handed down.
type Addition struct {
	Name  string
	Type  string
	Value any
}

// Change describes what happened to the properties of one node.
type Change struct {
	Updated []string
	Deleted []string
	Renamed []Rename
	Added   []Addition
}

// IsEmpty reports whether the change carries nothing to propagate.
func (c Change) IsEmpty() bool {
	return len(c.Updated) == 0 && len(c.Deleted) == 0 && len(c.Renamed) == 0 && len(c.Added) == 0
}
