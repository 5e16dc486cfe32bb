package service

import "foodgram/backend/internal/models"

// Capability is a bit set of what a caller may do with a resource.
type Capability uint8

const (
	CapRead Capability = 1 << iota
	CapWrite
)

// Has reports whether c includes every bit of want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Capabilities decides what caller (0 when anonymous) may do with a resource
// owned by ownerID. Everyone reads; the owner and admins also write.
func Capabilities(callerRole string, ownerID, callerID uint) Capability {
	caps := CapRead
	if callerID == 0 {
		return caps
	}
	if callerRole == models.RoleAdmin || callerID == ownerID {
		caps |= CapWrite
	}
	return caps
}
