package commands

// TriggerSearchIndexCommand refreshes the search document of a node.
type TriggerSearchIndexCommand struct {
	NodeID  string `json:"nodeId" validate:"required"`
	Update  bool   `json:"update"`
	Deleted bool   `json:"deleted"`
}

// Validate validates the command
func (c TriggerSearchIndexCommand) Validate() error {
	return validate(c)
}
