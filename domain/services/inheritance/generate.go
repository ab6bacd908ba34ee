package inheritance

import (
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
)

// GenerateInheritance derives the rules of a new specialization of parent.
// Rules the parent owns point at the parent; rules it inherits keep their
// owner. isPartOf is never inherited.
func GenerateInheritance(parent *entities.Node) vo.Inheritance {
	out := parent.Inheritance.Clone()
	for name := range parent.Properties {
		if _, ok := out[name]; !ok {
			out[name] = vo.InheritanceRule{InheritanceType: vo.DefaultInheritanceType}
		}
	}
	for name, rule := range out {
		if name == vo.PropertyIsPartOf {
			out[name] = vo.InheritanceRule{InheritanceType: vo.NeverInherit}
			continue
		}
		if !rule.IsInherited() {
			out[name] = rule.WithRef(parent.ID)
		}
	}
	return out
}

// InheritProperties computes the property values of a specialization of
// parent. childProps are values the specialization already has or was
// created with; they win according to each property's inheritance type.
func InheritProperties(parent *entities.Node, childProps map[string]any, inheritance vo.Inheritance) map[string]any {
	out := map[string]any{
		vo.PropertyParts:    vo.NewCollections(),
		vo.PropertyIsPartOf: vo.NewCollections(),
	}

	for key, value := range parent.Properties {
		_, isCollection := value.(vo.Collections)
		childValue, defined := childProps[key]

		switch inheritance.Rule(key).InheritanceType {
		case vo.NeverInherit, vo.InheritAfterReview:
			switch {
			case isCollection:
				out[key] = vo.NewCollections()
			case defined:
				out[key] = childValue
			default:
				out[key] = nil
			}
		case vo.AlwaysInherit:
			out[key] = vo.DeepCopy(value)
		default:
			if !defined {
				out[key] = vo.DeepCopy(value)
				continue
			}
			if !isCollection {
				out[key] = childValue
				continue
			}
			if cs, ok := vo.AsCollections(childValue); ok {
				out[key] = cs
			} else {
				out[key] = vo.NewCollections()
			}
		}
	}

	for key, value := range childProps {
		if _, ok := out[key]; !ok {
			out[key] = value
		}
	}
	return out
}
