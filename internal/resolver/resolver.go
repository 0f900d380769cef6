// Package resolver maps a rule's role and an event payload to a recipient
// address.
package resolver

import (
	"strings"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// roleKeys lists the payload fields consulted per role, most specific first.
var roleKeys = map[domain.Role][]string{
	domain.RoleStudent:       {"studentEmail", "userEmail", "email"},
	domain.RoleUser:          {"userEmail", "email"},
	domain.RoleClubPresident: {"presidentEmail", "clubPresidentEmail", "clubEmail"},
	domain.RoleDonor:         {"donorEmail", "userEmail", "email"},
	domain.RoleMentor:        {"mentorEmail", "email"},
	domain.RoleCorporate:     {"corporateEmail", "contactEmail", "email"},
	domain.RoleAlumni:        {"alumniEmail", "email"},
	domain.RoleAdmin:         {"adminEmail"},
}

var fallbackKeys = []string{"to", "email"}

// Resolver is total: it never panics and reports a miss with ok=false.
type Resolver struct {
	// AdminEmail is used for the admin role when the payload names no admin.
	AdminEmail string
}

func New(adminEmail string) *Resolver {
	return &Resolver{AdminEmail: adminEmail}
}

func (r *Resolver) Resolve(role domain.Role, payload map[string]any) (string, bool) {
	keys, known := roleKeys[role]
	if !known {
		keys = fallbackKeys
	}
	if addr, ok := firstString(payload, keys); ok {
		return addr, true
	}
	if role == domain.RoleAdmin && r.AdminEmail != "" {
		return r.AdminEmail, true
	}
	return "", false
}

func firstString(payload map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		s, ok := payload[k].(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, true
		}
	}
	return "", false
}
