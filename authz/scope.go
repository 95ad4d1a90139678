package authz

import "errors"

// Denial reasons. Handlers map these to HTTP statuses; services return them
// untouched so the distinction between "not logged in", "wrong role" and
// "account misconfigured" survives to the boundary.
var (
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrRoleNotPermitted = errors.New("role not permitted")
	ErrMissingKampung   = errors.New("no kampung assigned to your account")
)

// ScopeKind discriminates the ScopeFilter variants.
type ScopeKind int

const (
	ScopeUnrestricted ScopeKind = iota
	ScopeKampung
)

// ScopeFilter is the positive outcome of an authorization check. It tells the
// query layer how far the caller may see: everything, or one kampung. Query
// code switches on Kind; there is deliberately no way to construct a kampung
// scope without a kampung value.
type ScopeFilter struct {
	Kind    ScopeKind
	Kampung string
}

// Unrestricted grants visibility across all kampungs.
func Unrestricted() ScopeFilter {
	return ScopeFilter{Kind: ScopeUnrestricted}
}

// KampungEquals restricts visibility to a single kampung.
func KampungEquals(kampung string) ScopeFilter {
	return ScopeFilter{Kind: ScopeKampung, Kampung: kampung}
}

// Authorize decides whether principal may perform action on resource and, if
// so, how wide the resulting data access is.
//
// A ketua_kampung always gets a kampung-bound scope. If their account has no
// kampung assigned that is a configuration error, reported as
// ErrMissingKampung rather than silently returning an empty view.
func Authorize(p *Principal, resource Resource, action Action) (ScopeFilter, error) {
	if p == nil {
		return ScopeFilter{}, ErrNotLoggedIn
	}

	if !HasPermission(permissionsFor(resource), p.Role, action) {
		return ScopeFilter{}, ErrRoleNotPermitted
	}

	if p.Role == RoleKetuaKampung {
		if p.Kampung == nil || *p.Kampung == "" {
			return ScopeFilter{}, ErrMissingKampung
		}
		return KampungEquals(*p.Kampung), nil
	}

	return Unrestricted(), nil
}
