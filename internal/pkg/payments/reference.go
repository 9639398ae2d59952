package payments

import (
	"strings"

	"github.com/google/uuid"
)

// ReferencePrefix marks locally generated payment references.
const ReferencePrefix = "AF-"

// NewReference generates a payment reference like "AF-3F9A01BC": the prefix
// plus eight uppercase hex characters drawn from a random UUID. Uniqueness is
// enforced by the payments.reference unique index; the generator retries
// against that constraint at insert time.
func NewReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return ReferencePrefix + strings.ToUpper(raw[:8])
}

// IsLocalReference reports whether a gateway-supplied order reference looks
// like one of ours.
func IsLocalReference(ref string) bool {
	return strings.HasPrefix(ref, ReferencePrefix)
}
