package session

import (
	"fmt"
	"strings"
)

type Scope string

const (
	ScopeOwner  Scope = "owner"
	ScopeMember Scope = "member"
)

func ParseScope(raw string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(raw))) {
	case ScopeOwner:
		return ScopeOwner, nil
	case ScopeMember, "":
		return ScopeMember, nil
	default:
		return "", fmt.Errorf("unknown scope %q (expected owner or member)", raw)
	}
}

// Keys are the storage keys holding the token and the serialized user.
type Keys struct {
	Token string
	User  string
}

func KeysFor(scope Scope) Keys {
	if scope == ScopeOwner {
		return Keys{Token: "token", User: "user"}
	}
	return Keys{Token: "member_token", User: "member_user"}
}
