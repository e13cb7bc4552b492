package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseguard/models"
)

func TestParseEscalationTargetsShapes(t *testing.T) {
	raw := []byte(`[7, "42", "role:admin", "supervisor", {"kind":"user_id","value":9}, {"type":"role","value":"chief"}]`)

	targets, err := ParseEscalationTargets(raw)
	require.NoError(t, err)

	assert.Equal(t, []models.EscalationTarget{
		{Kind: models.TargetUserID, UserID: 7},
		{Kind: models.TargetUserID, UserID: 42},
		{Kind: models.TargetRole, Role: "admin"},
		{Kind: models.TargetRole, Role: "supervisor"},
		{Kind: models.TargetUserID, UserID: 9},
		{Kind: models.TargetRole, Role: "chief"},
	}, targets)
}

func TestParseEscalationTargetsEmpty(t *testing.T) {
	targets, err := ParseEscalationTargets(nil)
	require.NoError(t, err)
	assert.Nil(t, targets)

	targets, err = ParseEscalationTargets([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestParseEscalationTargetsMalformed(t *testing.T) {
	cases := []string{
		`{"not":"an array"}`,
		`[0]`,
		`[-3]`,
		`[""]`,
		`["role:"]`,
		`[{"kind":"user_id","value":"not a number"}]`,
		`[{"kind":"shoe_size","value":9}]`,
		`[true]`,
	}

	for _, raw := range cases {
		_, err := ParseEscalationTargets([]byte(raw))
		require.Error(t, err, "input %s", raw)

		var cerr *models.ConfigurationError
		assert.True(t, errors.As(err, &cerr), "input %s", raw)
	}
}
