package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRuleSet is returned when a rule table cannot be compiled
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrInvalidRulebook is returned when a rulebook file is malformed
	ErrInvalidRulebook = errors.New("invalid rulebook")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNotFound is returned when a product does not exist in the store
	ErrNotFound = errors.New("product not found")

	// ErrConflict is returned when a product changed since the changeset was built
	ErrConflict = errors.New("product changed since it was read")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrReachabilityCheck is returned when an image could not be checked
	ErrReachabilityCheck = errors.New("image reachability check failed")

	// ErrStoreUnavailable is returned when an operation needs the product store but none is configured
	ErrStoreUnavailable = errors.New("product store not configured")
)

// RecordError ties a collaborator failure to the product it happened on.
// Batch operations collect these instead of aborting.
type RecordError struct {
	ID  string
	Err error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("product %s: %v", e.ID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

func (e RecordError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}{ID: e.ID, Error: msg})
}
