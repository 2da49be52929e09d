package auth

// Permission names an atomic action class gated by the role model.
type Permission string

const (
	PermRead Permission = "read"

	PermUserCreate     Permission = "user.create"
	PermUserUpdate     Permission = "user.update"
	PermUserDeactivate Permission = "user.deactivate"

	PermCustomerCreate Permission = "customer.create"
	PermCustomerUpdate Permission = "customer.update"

	PermContractCreate  Permission = "contract.create"
	PermContractUpdate  Permission = "contract.update"
	PermContractSign    Permission = "contract.sign"
	PermContractPayment Permission = "contract.payment"
	PermContractFilter  Permission = "contract.filter"

	PermEventCreate  Permission = "event.create"
	PermEventUpdate  Permission = "event.update"
	PermEventDelete  Permission = "event.delete"
	PermEventAssign  Permission = "event.assign"
	PermEventSupport Permission = "event.support"
	PermEventFilter  Permission = "event.filter"
)

// Permissions returns every defined permission in a stable order.
func Permissions() []Permission {
	return []Permission{
		PermRead,
		PermUserCreate, PermUserUpdate, PermUserDeactivate,
		PermCustomerCreate, PermCustomerUpdate,
		PermContractCreate, PermContractUpdate, PermContractSign,
		PermContractPayment, PermContractFilter,
		PermEventCreate, PermEventUpdate, PermEventDelete,
		PermEventAssign, PermEventSupport, PermEventFilter,
	}
}

// rolePermissions is the authoritative role to permission mapping. It is
// fixed at build time; Admin holds every permission.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleAdmin: permSet(Permissions()...),
	RoleGestion: permSet(
		PermRead,
		PermUserCreate, PermUserUpdate, PermUserDeactivate,
		PermContractCreate, PermContractUpdate, PermContractSign, PermContractPayment,
		PermEventUpdate, PermEventDelete, PermEventAssign, PermEventFilter,
	),
	RoleCommercial: permSet(
		PermRead,
		PermCustomerCreate, PermCustomerUpdate,
		PermContractUpdate, PermContractSign, PermContractFilter,
		PermEventCreate,
	),
	RoleSupport: permSet(
		PermRead,
		PermEventUpdate, PermEventSupport, PermEventFilter,
	),
}

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Allowed reports whether role may perform the action named by perm. The
// lookup is total: unknown roles and unknown permissions yield false.
func Allowed(role Role, perm Permission) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// RolesWith returns the roles granted perm, in the order of Roles().
func RolesWith(perm Permission) []Role {
	var out []Role
	for _, role := range Roles() {
		if Allowed(role, perm) {
			out = append(out, role)
		}
	}
	return out
}

// PermissionsOf returns the permission set of a role, in the order of
// Permissions(). Unknown roles yield nil.
func PermissionsOf(role Role) []Permission {
	set, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for _, p := range Permissions() {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
