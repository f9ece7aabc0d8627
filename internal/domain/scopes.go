package domain

import (
	"sort"
	"strings"
)

// AuthScopes is a set of Shopify access scopes. Write scopes imply their read
// counterpart ("write_orders" grants "read_orders"), so implied read scopes are
// dropped from the canonical form.
type AuthScopes struct {
	scopes map[string]struct{}
}

// NewAuthScopes builds a scope set from a comma-separated string.
func NewAuthScopes(s string) AuthScopes {
	return NewAuthScopesFromList(strings.Split(s, ","))
}

// NewAuthScopesFromList builds a scope set from individual scope strings.
// Blank entries are ignored.
func NewAuthScopesFromList(list []string) AuthScopes {
	scopes := make(map[string]struct{})
	for _, raw := range list {
		scope := strings.TrimSpace(raw)
		if scope != "" {
			scopes[scope] = struct{}{}
		}
	}
	for scope := range scopes {
		if implied, ok := impliedReadScope(scope); ok {
			delete(scopes, implied)
		}
	}
	return AuthScopes{scopes: scopes}
}

// impliedReadScope returns the read scope granted implicitly by a write scope.
func impliedReadScope(scope string) (string, bool) {
	if rest, ok := strings.CutPrefix(scope, "unauthenticated_write_"); ok {
		return "unauthenticated_read_" + rest, true
	}
	if rest, ok := strings.CutPrefix(scope, "write_"); ok {
		return "read_" + rest, true
	}
	return "", false
}

// Has reports whether the set grants the given scope, directly or by
// write-implies-read.
func (a AuthScopes) Has(scope string) bool {
	if _, ok := a.scopes[scope]; ok {
		return true
	}
	if rest, ok := strings.CutPrefix(scope, "unauthenticated_read_"); ok {
		_, ok := a.scopes["unauthenticated_write_"+rest]
		return ok
	}
	if rest, ok := strings.CutPrefix(scope, "read_"); ok {
		_, ok := a.scopes["write_"+rest]
		return ok
	}
	return false
}

// Covers reports whether the set grants every scope of other.
func (a AuthScopes) Covers(other AuthScopes) bool {
	for scope := range other.scopes {
		if !a.Has(scope) {
			return false
		}
	}
	return true
}

// Equal compares canonical forms.
func (a AuthScopes) Equal(other AuthScopes) bool {
	return a.String() == other.String()
}

// List returns the canonical scopes in sorted order.
func (a AuthScopes) List() []string {
	out := make([]string, 0, len(a.scopes))
	for scope := range a.scopes {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// String returns the sorted, comma-joined canonical form.
func (a AuthScopes) String() string {
	return strings.Join(a.List(), ",")
}

// IsEmpty reports whether the set holds no scopes.
func (a AuthScopes) IsEmpty() bool {
	return len(a.scopes) == 0
}
