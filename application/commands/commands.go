// Package commands defines the state changing requests of the ontology API.
package commands

import (
	vo "ontology-backend/domain/core/valueobjects"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/utils"
)

// MaxNodesPerRequest bounds the links a single request may carry.
const MaxNodesPerRequest = 100

// Audit identifies who asks for a change and why. Every mutating command
// embeds it.
type Audit struct {
	Uname     string `json:"-" validate:"required"`
	Reasoning string `json:"reasoning" validate:"required,notblank,max=1000"`
}

// validate runs the struct tags of cmd and checks each link list for empty
// and repeated IDs.
func validate(cmd interface{}, lists ...[]vo.Link) error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return err
	}
	for _, list := range lists {
		if err := validateLinks(list); err != nil {
			return err
		}
	}
	return nil
}

func validateLinks(links []vo.Link) error {
	if len(links) > MaxNodesPerRequest {
		return pkgerrors.Validation("Maximum of %d nodes can be processed at once", MaxNodesPerRequest)
	}
	seen := make(map[string]bool, len(links))
	for i, l := range links {
		if l.ID == "" {
			return pkgerrors.Validation("Invalid or missing node ID at index %d", i)
		}
		if seen[l.ID] {
			return pkgerrors.Validation("Duplicate node ID found: %s", l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

func validateCollections(name string, cs vo.Collections) error {
	if cs.Count() > MaxNodesPerRequest {
		return pkgerrors.Validation("%s: maximum of %d nodes can be processed at once", name, MaxNodesPerRequest)
	}
	for _, c := range cs {
		if c.CollectionName == "" || c.CollectionName == vo.MainCollection {
			continue
		}
		if err := vo.ValidateCollectionName(c.CollectionName); err != nil {
			return pkgerrors.Validation("%s: %s", name, err.Error())
		}
	}
	return nil
}

// LinkIDs returns the IDs of links in order.
func LinkIDs(links []vo.Link) []string {
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}
