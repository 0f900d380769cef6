package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifyhub/campaign-mailer/internal/templates"
)

func TestSimple_SubstitutesAndEscapes(t *testing.T) {
	f := templates.Simple("Hi {name}", "Donated {amount}\nto {campaignTitle}")

	c, err := f(map[string]any{"name": "Ada", "amount": float64(500), "campaignTitle": "<Robotics>"})
	require.NoError(t, err)

	assert.Equal(t, "Hi Ada", c.Subject)
	assert.Contains(t, c.Body, "<p>Donated 500</p>")
	assert.Contains(t, c.Body, "<p>to &lt;Robotics&gt;</p>")
}

func TestSimple_MissingFieldsRenderEmpty(t *testing.T) {
	c, err := templates.Simple("Hi {name}", "Body")(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Hi ", c.Subject)
}

func TestRequire_FailsOnMissingField(t *testing.T) {
	_, err := templates.PasswordReset(map[string]any{"email": "a@b.co"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resetUrl")

	c, err := templates.PasswordReset(map[string]any{"resetUrl": "https://x/reset", "expiresIn": "1h"})
	require.NoError(t, err)
	assert.Contains(t, c.Body, "https://x/reset")
}
