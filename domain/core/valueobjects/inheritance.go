package valueobjects

import "fmt"

// InheritanceType controls how a property flows from a node to its specializations.
type InheritanceType string

const (
	NeverInherit                   InheritanceType = "neverInherit"
	AlwaysInherit                  InheritanceType = "alwaysInherit"
	InheritUnlessAlreadyOverRidden InheritanceType = "inheritUnlessAlreadyOverRidden"
	InheritAfterReview             InheritanceType = "inheritAfterReview"
)

// DefaultInheritanceType is applied when a rule does not name a type.
const DefaultInheritanceType = InheritUnlessAlreadyOverRidden

// ParseInheritanceType validates a raw inheritance type string.
func ParseInheritanceType(s string) (InheritanceType, error) {
	switch t := InheritanceType(s); t {
	case NeverInherit, AlwaysInherit, InheritUnlessAlreadyOverRidden, InheritAfterReview:
		return t, nil
	default:
		return "", fmt.Errorf("invalid inheritance type %q", s)
	}
}

// IsValid reports whether t is one of the known inheritance types.
func (t InheritanceType) IsValid() bool {
	_, err := ParseInheritanceType(string(t))
	return err == nil
}

// OrDefault returns t, or the default type when t is empty.
func (t InheritanceType) OrDefault() InheritanceType {
	if t == "" {
		return DefaultInheritanceType
	}
	return t
}

// InheritanceRule records where a property value comes from.
// A nil Ref means the node owns the value.
type InheritanceRule struct {
	Ref             *string         `json:"ref" dynamodbav:"ref"`
	InheritanceType InheritanceType `json:"inheritanceType" dynamodbav:"inheritanceType"`
}

// NewInheritanceRule builds a rule pointing at ref (empty string means owned).
func NewInheritanceRule(ref string, t InheritanceType) InheritanceRule {
	rule := InheritanceRule{InheritanceType: t.OrDefault()}
	if ref != "" {
		rule.Ref = &ref
	}
	return rule
}

// RefID returns the source node ID or "" when the value is owned.
func (r InheritanceRule) RefID() string {
	if r.Ref == nil {
		return ""
	}
	return *r.Ref
}

// IsInherited reports whether the value is taken from another node.
func (r InheritanceRule) IsInherited() bool {
	return r.Ref != nil && *r.Ref != ""
}

// WithRef returns a copy of r pointing at ref.
func (r InheritanceRule) WithRef(ref string) InheritanceRule {
	out := InheritanceRule{InheritanceType: r.InheritanceType.OrDefault()}
	if ref != "" {
		out.Ref = &ref
	}
	return out
}

// Inheritance maps property names to their rules.
type Inheritance map[string]InheritanceRule

// Clone deep-copies the inheritance map.
func (in Inheritance) Clone() Inheritance {
	if in == nil {
		return Inheritance{}
	}
	out := make(Inheritance, len(in))
	for k, v := range in {
		rule := InheritanceRule{InheritanceType: v.InheritanceType}
		if v.Ref != nil {
			ref := *v.Ref
			rule.Ref = &ref
		}
		out[k] = rule
	}
	return out
}

// Rule returns the rule for property, falling back to an owned default rule.
func (in Inheritance) Rule(property string) InheritanceRule {
	if rule, ok := in[property]; ok {
		return rule
	}
	return InheritanceRule{InheritanceType: DefaultInheritanceType}
}

// Source returns the node that owns the value of property as seen from nodeID.
func (in Inheritance) Source(property, nodeID string) string {
	if ref := in.Rule(property).RefID(); ref != "" {
		return ref
	}
	return nodeID
}
