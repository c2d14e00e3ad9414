package policy

import "stayhub/internal/domain/user"

// Operation enumerates every guarded action in the system. The HTTP layer
// receives this table at startup instead of spreading matcher rules around.
type Operation string

const (
	OpRegister          Operation = "auth.register"
	OpSubmitListing     Operation = "listing.submit"
	OpApproveListing    Operation = "listing.approve"
	OpRejectListing     Operation = "listing.reject"
	OpListPublic        Operation = "listing.public"
	OpListPending       Operation = "listing.pending"
	OpListAllProperties Operation = "listing.all"
	OpListMyListings    Operation = "listing.mine"
	OpCreateBooking     Operation = "booking.create"
	OpConfirmBooking    Operation = "booking.confirm"
	OpCancelBooking     Operation = "booking.cancel"
	OpListMyBookings    Operation = "booking.mine"
	OpListHostBookings  Operation = "booking.host"
	OpListAllBookings   Operation = "booking.all"
)

// Rule describes who may perform an operation.
type Rule struct {
	// AllowAnonymous permits unauthenticated callers.
	AllowAnonymous bool
	// Roles restricts the operation to the listed roles. Empty means any
	// authenticated identity.
	Roles []user.Role
	// OwnerOverride lets the resource owner through regardless of role.
	OwnerOverride bool
}

var table = map[Operation]Rule{
	OpRegister:          {AllowAnonymous: true},
	OpListPublic:        {AllowAnonymous: true},
	OpSubmitListing:     {Roles: []user.Role{user.RoleHost, user.RoleAdmin}},
	OpApproveListing:    {Roles: []user.Role{user.RoleAdmin}},
	OpRejectListing:     {Roles: []user.Role{user.RoleAdmin}},
	OpListPending:       {Roles: []user.Role{user.RoleAdmin}},
	OpListAllProperties: {Roles: []user.Role{user.RoleAdmin}},
	OpListMyListings:    {Roles: []user.Role{user.RoleHost, user.RoleAdmin}},
	OpCreateBooking:     {},
	OpConfirmBooking:    {Roles: []user.Role{user.RoleAdmin}},
	OpCancelBooking:     {Roles: []user.Role{user.RoleAdmin}, OwnerOverride: true},
	OpListMyBookings:    {},
	OpListHostBookings:  {Roles: []user.Role{user.RoleHost, user.RoleAdmin}},
	OpListAllBookings:   {Roles: []user.Role{user.RoleAdmin}},
}

// RuleFor exposes the routing table entry for an operation; unknown
// operations deny everything.
func RuleFor(op Operation) (Rule, bool) {
	rule, ok := table[op]
	return rule, ok
}

// Allows is the pure access decision: (operation, actor role, resource
// ownership) to allow or deny. An empty role means anonymous.
func Allows(op Operation, role user.Role, owner bool) bool {
	rule, ok := table[op]
	if !ok {
		return false
	}
	if role == "" {
		return rule.AllowAnonymous
	}
	if rule.OwnerOverride && owner {
		return true
	}
	if len(rule.Roles) == 0 {
		return true
	}
	for _, allowed := range rule.Roles {
		if role == allowed {
			return true
		}
	}
	return false
}
