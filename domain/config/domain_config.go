package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Request constraints
	MaxNodesPerRequest    int
	MaxReasoningLength    int
	MaxTitleLength        int
	MaxCollectionNameLen  int
	MaxPropertyNameLength int

	// Write path
	BatchSize           int
	TransactionSize     int
	LockTTL             time.Duration
	LockAcquireTimeout  time.Duration
	MaxPropagationDepth int

	// Paging
	DefaultListLimit    int
	MaxListLimit        int
	DefaultChangesLimit int
	MaxChangesLimit     int

	// SystemUser edits are never recorded in the change log
	SystemUser string

	// Feature flags
	EnableSearchIndexing bool
	EnableEvents         bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerRequest:    100,
		MaxReasoningLength:    1000,
		MaxTitleLength:        500,
		MaxCollectionNameLen:  50,
		MaxPropertyNameLength: 100,

		BatchSize:           400,
		TransactionSize:     100,
		LockTTL:             30 * time.Second,
		LockAcquireTimeout:  10 * time.Second,
		MaxPropagationDepth: 256,

		DefaultListLimit:    10,
		MaxListLimit:        100,
		DefaultChangesLimit: 20,
		MaxChangesLimit:     100,

		SystemUser: "ouhrac",

		EnableSearchIndexing: false,
		EnableEvents:         true,
	}
}

// Validate checks that the configuration is usable
func (c *DomainConfig) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidConfig("BatchSize must be positive")
	}
	if c.TransactionSize <= 0 || c.TransactionSize > 100 {
		return ErrInvalidConfig("TransactionSize must be between 1 and 100")
	}
	if c.MaxNodesPerRequest <= 0 {
		return ErrInvalidConfig("MaxNodesPerRequest must be positive")
	}
	if c.DefaultListLimit <= 0 || c.DefaultListLimit > c.MaxListLimit {
		return ErrInvalidConfig("DefaultListLimit must be between 1 and MaxListLimit")
	}
	if c.MaxPropagationDepth <= 0 {
		return ErrInvalidConfig("MaxPropagationDepth must be positive")
	}
	return nil
}

// ErrInvalidConfig represents a configuration error
type ErrInvalidConfig string

func (e ErrInvalidConfig) Error() string {
	return "invalid domain config: " + string(e)
}
