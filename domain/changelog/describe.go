package changelog

import (
	"fmt"
	"strings"
)

var displayNames = map[string]string{
	"specializations": "Specializations",
	"generalizations": "Generalizations",
	"parts":           "Parts",
	"isPartOf":        "Is Part Of",
	"title":           "Title",
	"description":     "Description",
}

func display(property string) string {
	if name, ok := displayNames[property]; ok {
		return name
	}
	if property == "" {
		return ""
	}
	return strings.ToUpper(property[:1]) + property[1:]
}

func elementName(property string) string {
	switch property {
	case "specializations":
		return "Specialization"
	case "generalizations":
		return "Generalization"
	case "parts":
		return "Part"
	}
	return display(property)
}

// Describe renders a short human readable summary of a change.
func Describe(c NodeChange) string {
	text := display(c.ModifiedProperty)
	switch c.ChangeType {
	case ChangeText:
		return fmt.Sprintf("Updated %q in:", text)
	case ChangeAddCollection:
		return "Added a new collection in:"
	case ChangeDeleteCollection:
		return "Deleted a collection in:"
	case ChangeEditCollection:
		return "Renamed a collection in:"
	case ChangeSortElements:
		return fmt.Sprintf("Sorted elements under %q in:", text)
	case ChangeRemoveElement:
		return fmt.Sprintf("Removed a %s in:", elementName(c.ModifiedProperty))
	case ChangeAddElement:
		return fmt.Sprintf("Added a new %s Under:", elementName(c.ModifiedProperty))
	case ChangeAddElements:
		return fmt.Sprintf("Added %q Under:", text)
	case ChangeRemoveElements:
		return fmt.Sprintf("Removed %q Under:", text)
	case ChangeModifyElements:
		return fmt.Sprintf("Modify %q Under:", text)
	case ChangeAddProperty:
		added, _ := c.ChangeDetails["addedProperty"].(string)
		if added == "" {
			added = c.ModifiedProperty
		}
		return fmt.Sprintf("Added %q in:", added)
	case ChangeRemoveProperty:
		return fmt.Sprintf("Removed %q in:", text)
	case ChangeEditProperty:
		return "Changed the name of a property in:"
	case ChangeDeleteNode:
		return "Deleted the node:"
	case ChangeAddNode:
		return "Added a new node titled:"
	case ChangeAddImages:
		return `Added new "Image" in:`
	case ChangeRemoveImages:
		return `Removed "Image" in:`
	case ChangeSortCollections:
		return "Reordered collections in:"
	case ChangeError:
		return "Failed to apply a change to:"
	}
	return "Made an unknown change to:"
}
