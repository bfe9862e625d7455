package permission

import (
	"testing"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		role       models.Role
		capability Capability
		want       bool
	}{
		{models.RoleUser, LinkCreate, true},
		{models.RoleUser, ClicksGet, true},
		{models.RoleUser, AnalyticsGet, true},
		{models.RoleUser, LinkUpdateIsHidden, true},
		{models.RoleUser, LinkGetAll, false},
		{models.RoleUser, AdminGetInsight, false},
		{models.RoleUser, ReviewGetAll, false},
		{models.RoleAdmin, LinkCreate, true},
		{models.RoleAdmin, LinkGetAll, true},
		{models.RoleAdmin, UserManage, true},
		{models.RoleAdmin, LinkUpdateIsHidden, true},
		{models.RoleAdmin, ReviewGetAll, true},
		{models.Role("GUEST"), LinkCreate, false},
		{models.RoleAdmin, Capability("link:*"), false},
		{models.RoleAdmin, Capability("link"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.capability), func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowed(tt.role, tt.capability))
		})
	}
}

func TestAdminRightsIncludeUserRights(t *testing.T) {
	for _, c := range userRights {
		assert.True(t, IsAllowed(models.RoleAdmin, c), c)
	}
}
