package client

import (
	"fmt"
	"strings"
)

const propertyPrefix = "properties/"

// NormalizePropertyID returns the canonical "properties/<id>" form of id.
// Both "12345" and "properties/12345" yield "properties/12345", so applying
// it twice is a no-op.
func NormalizePropertyID(id string) (string, error) {
	id = strings.TrimSpace(id)
	bare := strings.TrimPrefix(id, propertyPrefix)
	if bare == "" {
		return "", fmt.Errorf("property id is required")
	}
	if strings.Contains(bare, "/") {
		return "", fmt.Errorf("invalid property id %q", id)
	}
	return propertyPrefix + bare, nil
}
