package auth

import (
	"fmt"
	"sync"
)

// Role is a capability held by exactly one identity at a time.
type Role uint8

const (
	RoleOwner Role = iota
	RoleDistributor
	RoleSelf // the component acting on its own behalf
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleDistributor:
		return "distributor"
	case RoleSelf:
		return "self"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Authorizer decides whether a credential may perform an operation.
type Authorizer interface {
	Check(op Operation, cred *Credential) error
}

// defaultRules maps each protected operation to the roles allowed to run it.
var defaultRules = map[Operation][]Role{
	OpDeposit:              {RoleOwner},
	OpDistributeFromEscrow: {RoleDistributor},
	OpDistributeSupplied:   {RoleDistributor, RoleSelf},
	OpSetDistributor:       {RoleOwner},
}

// Policy is the role table of one component. The owner and self holders are
// fixed at construction; the distributor may be reassigned by the owner.
type Policy struct {
	mu      sync.RWMutex
	holders map[Role]Identity
	rules   map[Operation][]Role
}

// Compile-time interface check.
var _ Authorizer = (*Policy)(nil)

// NewPolicy creates a policy with the given role holders.
func NewPolicy(owner, distributor, self Identity) (*Policy, error) {
	for role, id := range map[Role]Identity{RoleOwner: owner, RoleDistributor: distributor, RoleSelf: self} {
		if id.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrZeroIdentity, role)
		}
	}
	return &Policy{
		holders: map[Role]Identity{
			RoleOwner:       owner,
			RoleDistributor: distributor,
			RoleSelf:        self,
		},
		rules: defaultRules,
	}, nil
}

// Holder returns the identity currently holding role.
func (p *Policy) Holder(role Role) Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.holders[role]
}

// Check verifies cred for op and that its identity holds one of the roles op requires.
func (p *Policy) Check(op Operation, cred *Credential) error {
	if err := cred.Verify(op); err != nil {
		return err
	}
	roles, ok := p.rules[op]
	if !ok {
		return fmt.Errorf("%w: no rule for %q", ErrUnauthorized, op)
	}
	caller := cred.Identity()

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, role := range roles {
		if p.holders[role] == caller {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not %s", ErrUnauthorized, caller, op)
}

// SetDistributor hands the distributor role to id. Only the owner may do this.
func (p *Policy) SetDistributor(cred *Credential, id Identity) error {
	if id.IsZero() {
		return fmt.Errorf("%w: %s", ErrZeroIdentity, RoleDistributor)
	}
	if err := p.Check(OpSetDistributor, cred); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holders[RoleDistributor] = id
	return nil
}
