package enums

import "strings"

// ActorRole identifies who is performing a mutation. Identity arrives from
// the gateway headers; the role string gates which actions are allowed.
type ActorRole string

const (
	ActorRoleCashier   ActorRole = "cashier"
	ActorRolePurchaser ActorRole = "purchaser"
	ActorRoleManager   ActorRole = "manager"
	ActorRoleAdmin     ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleCashier,
	ActorRolePurchaser,
	ActorRoleManager,
	ActorRoleAdmin,
}

func (r ActorRole) IsValid() bool {
	for _, valid := range validActorRoles {
		if r == valid {
			return true
		}
	}
	return false
}

func (r ActorRole) String() string {
	return string(r)
}

// ParseActorRole normalizes and validates a raw role string.
func ParseActorRole(raw string) (ActorRole, bool) {
	role := ActorRole(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", false
	}
	return role, true
}
