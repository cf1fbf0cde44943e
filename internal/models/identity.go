package models

type IdentityKind uint8

const (
	IdentityGuest IdentityKind = iota
	IdentityUser
)

func (k IdentityKind) String() string {
	if k == IdentityUser {
		return "user"
	}
	return "guest"
}

// Identity is the key usage is metered against and records are partitioned by.
// For a user Key is the verified subject; for a guest it is the client address.
type Identity struct {
	Kind  IdentityKind
	Key   string
	Label string
}

func NewUser(id, label string) Identity {
	return Identity{Kind: IdentityUser, Key: id, Label: label}
}

func NewGuest(address string) Identity {
	return Identity{Kind: IdentityGuest, Key: address, Label: "guest"}
}

func (i Identity) IsUser() bool {
	return i.Kind == IdentityUser
}

// OwnerID is the value stored on gallery records. Guests own nothing.
func (i Identity) OwnerID() string {
	if i.IsUser() {
		return i.Key
	}
	return ""
}
