package policy

import (
	"testing"

	"restaurant-api/models"

	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	require.True(t, Allowed(OpPlaceOrder, models.RoleCashier))
	require.False(t, Allowed(OpPlaceOrder, models.RoleKitchenStaff))

	require.True(t, Allowed(OpUpdateStatus, models.RoleKitchenStaff))
	require.False(t, Allowed(OpUpdateStatus, models.RoleCashier))

	require.True(t, Allowed(OpManageUsers, models.RoleAdmin))
	require.False(t, Allowed(OpManageUsers, models.RoleManager))
}

func TestUnknownOperationDeniesEveryone(t *testing.T) {
	require.False(t, Allowed(Operation("nope"), models.RoleAdmin))
	require.Empty(t, Roles(Operation("nope")))
}

func TestEveryOperationHasRoles(t *testing.T) {
	for op, roles := range table {
		require.NotEmpty(t, roles, op)
		for _, r := range roles {
			require.True(t, models.ValidRole(r), "%s: %s", op, r)
		}
	}
}
