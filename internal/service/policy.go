package service

// Policy decides whether an actor may act on a resource owned by ownerID.
// Both services consult a Policy instead of comparing identifiers inline so
// the ownership rule lives in one place.
type Policy func(actorID, ownerID string) bool

// OwnerOnly permits only the owning user.
func OwnerOnly(actorID, ownerID string) bool {
	return actorID != "" && actorID == ownerID
}
