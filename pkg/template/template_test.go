package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlainStringPassesThrough(t *testing.T) {
	result, err := Render("Herinnering: factuur openstaand", nil)

	require.NoError(t, err)
	assert.Equal(t, "Herinnering: factuur openstaand", result)
}

func TestRenderInterpolatesBindings(t *testing.T) {
	result, err := Render("Factuur {{ item.number }} is {{ item.days }} dagen te laat", map[string]any{
		"item": map[string]any{"number": "INV-2026-001", "days": 14},
	})

	require.NoError(t, err)
	assert.Equal(t, "Factuur INV-2026-001 is 14 dagen te laat", result)
}

func TestEuroFilter(t *testing.T) {
	result, err := Render("Totaal: {{ total | euro }}", map[string]any{"total": 1210.50})

	require.NoError(t, err)
	assert.Equal(t, "Totaal: €1210.50", result)
}

func TestDefaultFilter(t *testing.T) {
	result, err := Render("Beste {{ name | default: \"klant\" }}", map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, "Beste klant", result)
}

func TestDateNLFilter(t *testing.T) {
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	result, err := Render("Vervaldatum: {{ due | date_nl }}", map[string]any{"due": due})

	require.NoError(t, err)
	assert.Equal(t, "Vervaldatum: 15-03-2026", result)
}

func TestValidateRejectsBrokenTemplate(t *testing.T) {
	assert.Error(t, Validate("{{ item.number"))
	assert.NoError(t, Validate("{{ item.number }}"))
}
