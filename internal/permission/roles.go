// Package permission - статическая таблица прав по ролям.
package permission

import (
	"github.com/SergeiKhy/linkpulse/internal/models"
)

type Capability string

const (
	LinkCreate         Capability = "link:create"
	LinkUpdate         Capability = "link:update"
	LinkGetOwn         Capability = "link:get-own"
	LinkGetAll         Capability = "link:get-all"
	LinkGetByID        Capability = "link:get-by-id"
	LinkDelete         Capability = "link:delete"
	LinkUpdateIsHidden Capability = "link:update-is-hidden" // маршрута пока нет
	UserGet            Capability = "user:get"
	UserGetAll         Capability = "user:get-all"
	UserManage         Capability = "user:manage"
	AnalyticsGet       Capability = "analytics:get"
	ClicksGet          Capability = "clicks:get"
	AdminGetInsight    Capability = "admin:get-insight"
	ReviewCreate       Capability = "review:create"
	ReviewGetAll       Capability = "review:get-all"
)

var userRights = []Capability{
	LinkCreate,
	LinkUpdate,
	LinkGetOwn,
	LinkGetByID,
	LinkUpdateIsHidden,
	LinkDelete,
	UserGet,
	AnalyticsGet,
	ClicksGet,
	ReviewCreate,
}

var adminRights = append(append([]Capability{}, userRights...),
	LinkGetAll,
	UserGetAll,
	UserManage,
	AdminGetInsight,
	ReviewGetAll,
)

var roleRights = map[models.Role]map[Capability]struct{}{
	models.RoleUser:  toSet(userRights),
	models.RoleAdmin: toSet(adminRights),
}

func toSet(caps []Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// IsAllowed - точное членство, без иерархии и шаблонов
func IsAllowed(role models.Role, capability Capability) bool {
	_, ok := roleRights[role][capability]
	return ok
}
