package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/resolver"
)

func TestResolver_Resolve(t *testing.T) {
	r := resolver.New("ledger@example.org")

	tests := []struct {
		name    string
		role    domain.Role
		payload map[string]any
		want    string
		wantOK  bool
	}{
		{"student prefers studentEmail", domain.RoleStudent,
			map[string]any{"studentEmail": "s@x.com", "userEmail": "u@x.com", "email": "e@x.com"}, "s@x.com", true},
		{"student falls back to userEmail", domain.RoleStudent,
			map[string]any{"userEmail": "u@x.com", "email": "e@x.com"}, "u@x.com", true},
		{"student falls back to email", domain.RoleStudent,
			map[string]any{"email": "e@x.com"}, "e@x.com", true},
		{"blank values are skipped", domain.RoleStudent,
			map[string]any{"studentEmail": "  ", "email": "e@x.com"}, "e@x.com", true},
		{"non-string values are skipped", domain.RoleDonor,
			map[string]any{"donorEmail": 42, "email": "e@x.com"}, "e@x.com", true},
		{"president", domain.RoleClubPresident,
			map[string]any{"presidentEmail": "p@x.com", "email": "e@x.com"}, "p@x.com", true},
		{"president ignores generic email", domain.RoleClubPresident,
			map[string]any{"email": "e@x.com"}, "", false},
		{"admin from payload", domain.RoleAdmin,
			map[string]any{"adminEmail": "ops@x.com"}, "ops@x.com", true},
		{"admin from configuration", domain.RoleAdmin,
			map[string]any{}, "ledger@example.org", true},
		{"unknown role uses to", domain.Role("auditor"),
			map[string]any{"to": "t@x.com", "email": "e@x.com"}, "t@x.com", true},
		{"unknown role uses email", domain.Role("auditor"),
			map[string]any{"email": "e@x.com"}, "e@x.com", true},
		{"nothing found", domain.RoleMentor, map[string]any{}, "", false},
		{"nil payload", domain.RoleDonor, nil, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.Resolve(tc.role, tc.payload)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolver_AdminWithoutConfiguredAddress(t *testing.T) {
	r := resolver.New("")
	_, ok := r.Resolve(domain.RoleAdmin, map[string]any{})
	assert.False(t, ok)
}
