package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/tradesdesk/workspace-api/internal/models"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Operation names a tenant-scoped action guarded by the role table.
type Operation struct {
	Object string
	Action string
}

// String returns the operation as object:action.
func (o Operation) String() string {
	return o.Object + ":" + o.Action
}

var (
	ListMembers      = Operation{Object: "members", Action: "list"}
	InviteMember     = Operation{Object: "members", Action: "invite"}
	UpdateMembership = Operation{Object: "memberships", Action: "update"}
)

// Policy answers whether a tenant role may perform an operation.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy builds the enforcer and loads the role table.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(seedPolicies()); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	return &Policy{enforcer: enforcer}, nil
}

func seedPolicies() [][]string {
	grants := map[Operation][]models.Role{
		ListMembers:      {models.RoleOwner, models.RoleAdmin, models.RoleManager},
		InviteMember:     {models.RoleOwner, models.RoleAdmin},
		UpdateMembership: {models.RoleOwner, models.RoleAdmin},
	}

	var policies [][]string
	for op, roles := range grants {
		for _, role := range roles {
			policies = append(policies, []string{subject(role), op.Object, op.Action})
		}
	}
	return policies
}

// Allows reports whether role may perform op.
func (p *Policy) Allows(role models.Role, op Operation) (bool, error) {
	return p.enforcer.Enforce(subject(role), op.Object, op.Action)
}

func subject(role models.Role) string {
	return "role:" + string(role)
}
