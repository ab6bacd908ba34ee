package errors

import (
	"fmt"
	"net/http"
)

// Ontology error codes returned in the error envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNodeNotFound       = "NODE_NOT_FOUND"
	CodeNodeDeleted        = "NODE_DELETED"
	CodeNodeLocked         = "NODE_LOCKED"
	CodePropertyNotFound   = "PROPERTY_NOT_FOUND"
	CodePropertyExists     = "PROPERTY_EXISTS"
	CodeReservedProperty   = "RESERVED_PROPERTY"
	CodeCoreProperty       = "CORE_PROPERTY"
	CodeCircularReference  = "CIRCULAR_REFERENCE"
	CodeLastGeneralization = "LAST_GENERALIZATION"
	CodeHasSpecializations = "HAS_SPECIALIZATIONS"
	CodeCollectionExists   = "COLLECTION_EXISTS"
	CodeCollectionNotFound = "COLLECTION_NOT_FOUND"
	CodeInvalidAPIKey      = "INVALID_API_KEY"
	CodeNoChangesFound     = "NO_CHANGES_FOUND"
	CodeLockTimeout        = "LOCK_TIMEOUT"
	CodeWriteConflict      = "WRITE_CONFLICT"
	CodeThrottled          = "THROTTLED"
	CodeInternal           = "INTERNAL_ERROR"
)

// NodeNotFound reports a missing node.
func NodeNotFound(id string) *AppError {
	return NewNotFoundError("Node").WithCode(CodeNodeNotFound).WithDetail("nodeId", id)
}

// NodeAlreadyDeleted reports an operation on a soft deleted node.
func NodeAlreadyDeleted(id string) *AppError {
	return NewConflictError("Node is already deleted").WithCode(CodeNodeDeleted).WithDetail("nodeId", id)
}

// NodeLocked reports an edit attempt on a locked node.
func NodeLocked(id string) *AppError {
	e := newAppError(ErrorTypeForbidden, http.StatusForbidden, "Node is locked")
	return e.WithCode(CodeNodeLocked).WithDetail("nodeId", id)
}

// PropertyNotFound reports a missing property on a node.
func PropertyNotFound(nodeID, property string) *AppError {
	return NewNotFoundError(fmt.Sprintf("Property '%s'", property)).
		WithCode(CodePropertyNotFound).
		WithDetail("nodeId", nodeID)
}

// PropertyExists reports an attempt to add an existing property.
func PropertyExists(property string) *AppError {
	return NewConflictError(fmt.Sprintf("Property '%s' already exists", property)).WithCode(CodePropertyExists)
}

// ReservedProperty reports use of a node field as a property name.
func ReservedProperty(property string) *AppError {
	return NewValidationError(fmt.Sprintf("Property '%s' is reserved", property)).WithCode(CodeReservedProperty)
}

// CoreProperty reports an attempt to delete parts or isPartOf.
func CoreProperty(property string) *AppError {
	return NewValidationError(fmt.Sprintf("Cannot delete core property '%s'", property)).WithCode(CodeCoreProperty)
}

// CircularReference reports a link that would create a cycle.
func CircularReference(message string) *AppError {
	return NewValidationError(message).WithCode(CodeCircularReference)
}

// LastGeneralization reports removal of the only generalization of a node.
func LastGeneralization(nodeID string) *AppError {
	return NewValidationError("Cannot remove the last generalization of a node").
		WithCode(CodeLastGeneralization).
		WithDetail("nodeId", nodeID)
}

// HasSpecializations reports a deletion blocked by dependent specializations.
func HasSpecializations(nodeID string, blocking []string) *AppError {
	return NewConflictError("Node has specializations that must be moved or removed first").
		WithCode(CodeHasSpecializations).
		WithDetails(map[string]interface{}{"nodeId": nodeID, "specializations": blocking})
}

// Validation creates a validation error with the generic validation code.
func Validation(format string, args ...interface{}) *AppError {
	return NewValidationError(fmt.Sprintf(format, args...)).WithCode(CodeValidation)
}

// CollectionExists reports a duplicate collection name.
func CollectionExists(name string) *AppError {
	return NewConflictError(fmt.Sprintf("Collection '%s' already exists", name)).WithCode(CodeCollectionExists)
}

// CollectionNotFound reports a missing collection.
func CollectionNotFound(name string) *AppError {
	return NewNotFoundError(fmt.Sprintf("Collection '%s'", name)).WithCode(CodeCollectionNotFound)
}

// NoChangesFound reports an empty change log page.
func NoChangesFound(nodeID string) *AppError {
	e := newAppError(ErrorTypeNotFound, http.StatusNotFound, "No changes found for this node")
	return e.WithCode(CodeNoChangesFound).WithDetail("nodeId", nodeID)
}

// LockTimeout reports that the propagation lock could not be acquired in time.
func LockTimeout(resource string) *AppError {
	e := newAppError(ErrorTypeTimeout, http.StatusServiceUnavailable, "Another ontology update is in progress, try again")
	return e.WithCode(CodeLockTimeout).WithDetail("resource", resource)
}
