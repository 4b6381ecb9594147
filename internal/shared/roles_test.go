package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminRolesAreWellFormed(t *testing.T) {
	for _, def := range AdminRoles {
		assert.Equal(t, RoleTypeAdmin, def.Type, def.Name)
		assert.Equal(t, RoleCategoryPlatform, def.Category, def.Name)
		assert.Empty(t, def.ActionTrigger, def.Name)
	}
}

func TestUserRolesAreWellFormed(t *testing.T) {
	validCategories := map[string]struct{}{
		RoleCategoryVoter:           {},
		RoleCategoryElectionCreator: {},
		RoleCategorySponsor:         {},
	}
	validTriggers := map[string]struct{}{
		TriggerCreateElection:     {},
		TriggerCreateOrgElection:  {},
		TriggerContentIntegration: {},
		TriggerDepositFunds:       {},
	}

	names := make(map[string]struct{}, len(UserRoles))
	for _, def := range UserRoles {
		names[def.Name] = struct{}{}
		assert.Equal(t, RoleTypeUser, def.Type, def.Name)
		assert.Contains(t, validCategories, def.Category, def.Name)
		if def.ActionTrigger != "" {
			assert.Contains(t, validTriggers, def.ActionTrigger, def.Name)
		}
	}

	assert.Contains(t, names, DefaultRole, "the default role must be seeded")
}
