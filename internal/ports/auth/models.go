package auth

import "strings"

const RoleAdmin = "admin"

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
	Roles    []string
}

func (c Claims) IsAdmin() bool {
	for _, r := range c.Roles {
		if strings.EqualFold(strings.TrimSpace(r), RoleAdmin) {
			return true
		}
	}
	return false
}
