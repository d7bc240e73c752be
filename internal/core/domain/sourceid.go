package domain

import (
	"fmt"
	"strings"
)

// The source id travels inside the converted document's publisher field.
// The separator keeps it out of sight in the destination's UI.
const (
	sourceIDLabel     = "Pocket"
	sourceIDSeparator = "\t\t\t"
)

// EncodeSourceID returns the publisher field value carrying id.
func EncodeSourceID(id string) string {
	return sourceIDLabel + sourceIDSeparator + id
}

// DecodeSourceID recovers the id from a publisher field produced by
// EncodeSourceID.
func DecodeSourceID(field string) (string, error) {
	_, id, found := strings.Cut(field, sourceIDSeparator)
	id = strings.TrimSpace(id)
	if !found || id == "" {
		return "", fmt.Errorf("%w: publisher field %q carries no source id", ErrCorruptRemoteState, field)
	}
	return id, nil
}
