package authz

import "strings"

// Legacy role strings still live in old user rows and old session payloads
// ("admin", "ketua kampung", "District Officer"). NormalizeRole maps them to
// the canonical enum at the boundary so nothing past the identity resolver
// ever sees a legacy spelling.
func NormalizeRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "citizen", "villager":
		return RoleCitizen, true
	case "ketua_kampung", "ketua kampung":
		return RoleKetuaKampung, true
	case "penghulu":
		return RolePenghulu, true
	case "district_officer", "district officer":
		return RoleDistrictOfficer, true
	case "kplbhq", "admin":
		return RoleKplbHQ, true
	}
	return "", false
}
