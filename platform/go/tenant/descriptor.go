package tenant

import "github.com/google/uuid"

// Descriptor is the routing result of tenant resolution: the identity of an
// active tenant plus the connection descriptor needed to open its isolated
// database. The DSN is a secret and must never leave the process boundary.
type Descriptor struct {
	TenantID      uuid.UUID
	Identifier    string
	ConnectionDSN string
}
