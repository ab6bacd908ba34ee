package valueobjects

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Well-known property names.
const (
	PropertyParts       = "parts"
	PropertyIsPartOf    = "isPartOf"
	PropertyDescription = "description"
	PropertyONetID      = "ONetID"
)

// Primitive property type tags. Every other tag names a node type and marks a
// link-valued property.
const (
	TypeString         = "string"
	TypeStringArray    = "string-array"
	TypeObject         = "object"
	TypeObjects        = "Objects"
	TypeNumber         = "number"
	TypeNumeric        = "numeric"
	TypeBoolean        = "boolean"
	TypePreConditions  = "preConditions"
	TypePostConditions = "postConditions"
)

// ValidPropertyTypes lists the tags accepted when a property is created.
var ValidPropertyTypes = []string{
	"evaluationDimension",
	TypeStringArray,
	TypeString,
	"context",
	"actor",
	TypeObject,
	TypePreConditions,
	TypePostConditions,
	TypeNumber,
	TypeBoolean,
	"activity",
	"role",
	"incentive",
	"reward",
	"group",
}

var reservedProperties = map[string]bool{
	"id": true, "title": true, "deleted": true, "inheritance": true,
	"specializations": true, "generalizations": true, "root": true,
	"propertyType": true, "nodeType": true, "textValue": true,
	"createdBy": true, "propertyOf": true, "contributors": true,
	"contributorsByProperty": true, "locked": true,
}

// IsReservedProperty reports whether name is a node field rather than a property.
func IsReservedProperty(name string) bool {
	return reservedProperties[name]
}

// IsCoreProperty reports whether name is a property every node must keep.
func IsCoreProperty(name string) bool {
	return name == PropertyParts || name == PropertyIsPartOf
}

// IsValidPropertyType reports whether t may be used when creating a property.
func IsValidPropertyType(t string) bool {
	for _, v := range ValidPropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsPrimitiveType reports whether values of type t are plain JSON values.
func IsPrimitiveType(t string) bool {
	switch t {
	case TypeString, TypeStringArray, TypeObject, TypeObjects, TypeNumber,
		TypeNumeric, TypeBoolean, TypePreConditions, TypePostConditions:
		return true
	}
	return false
}

// CheckType verifies that value matches the declared property type.
func CheckType(propertyType string, value any) error {
	switch propertyType {
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("type mismatch: property type is 'string' but value is %s", describe(value))
		}
	case TypeStringArray, TypePreConditions, TypePostConditions:
		if !isArray(value) {
			return fmt.Errorf("type mismatch: property type is '%s' but value is not an array", propertyType)
		}
	case TypeObject, TypeObjects:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("type mismatch: property type is '%s' but value is %s", propertyType, describe(value))
		}
	case TypeNumber, TypeNumeric:
		if _, ok := toFloat(value); !ok {
			return fmt.Errorf("type mismatch: property type is '%s' but value is %s", propertyType, describe(value))
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("type mismatch: property type is 'boolean' but value is %s", describe(value))
		}
	}
	return nil
}

// InferType guesses a property type tag from a value.
func InferType(value any) string {
	switch v := value.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case Collections:
		return ""
	case map[string]any:
		return TypeObject
	case []any:
		return TypeStringArray
	case []string:
		return TypeStringArray
	default:
		if _, ok := toFloat(v); ok {
			return TypeNumber
		}
	}
	return TypeString
}

// NormalizeValue converts collection-shaped JSON into Collections so that the
// rest of the domain can type-switch on link-valued properties.
func NormalizeValue(value any) any {
	switch v := value.(type) {
	case Collections:
		return Normalize(v)
	case []Collection:
		return Normalize(Collections(v))
	case []any:
		if len(v) == 0 || !looksLikeCollections(v) {
			return v
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var cs Collections
		if err := json.Unmarshal(raw, &cs); err != nil {
			return v
		}
		return Normalize(cs)
	}
	return value
}

// NormalizeTypedValue normalizes value and coerces empty arrays of link-valued
// types into an empty main collection.
func NormalizeTypedValue(propertyType string, value any) any {
	value = NormalizeValue(value)
	if propertyType == "" || IsPrimitiveType(propertyType) {
		return value
	}
	if arr, ok := value.([]any); ok && len(arr) == 0 {
		return NewCollections()
	}
	return value
}

func looksLikeCollections(items []any) bool {
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m["collectionName"]; !ok {
			return false
		}
	}
	return true
}

// AsCollections returns the value as Collections when it is link-valued.
func AsCollections(value any) (Collections, bool) {
	cs, ok := NormalizeValue(value).(Collections)
	return cs, ok
}

// EmptyLike returns the empty value of the same shape as value.
func EmptyLike(value any) any {
	if _, ok := value.(Collections); ok {
		return NewCollections()
	}
	return nil
}

// ValuesEqual compares two property values by canonical JSON encoding.
func ValuesEqual(a, b any) bool {
	ja, errA := json.Marshal(NormalizeValue(a))
	jb, errB := json.Marshal(NormalizeValue(b))
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// DeepCopy copies a property value so that nodes never share mutable state.
func DeepCopy(value any) any {
	switch v := value.(type) {
	case Collections:
		return v.Clone()
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = DeepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = DeepCopy(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return v
	}
}

func isArray(value any) bool {
	switch value.(type) {
	case []any, []string, Collections:
		return true
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case []any, []string, Collections:
		return "an array"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	}
	if _, ok := toFloat(value); ok {
		return "a number"
	}
	return fmt.Sprintf("%T", value)
}
