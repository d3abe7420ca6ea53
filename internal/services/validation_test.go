package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia/backend/internal/models"
)

func TestValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("accepts a well-formed exit request", func(t *testing.T) {
		err := vh.ValidateStruct(&models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		assert.NoError(t, err)
	})

	t.Run("accepts a six digit badge number", func(t *testing.T) {
		err := vh.ValidateStruct(&models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "123456",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		assert.NoError(t, err)
	})

	tests := []struct {
		name  string
		req   models.ExitRequest
		field string
	}{
		{
			name: "badge number too short",
			req: models.ExitRequest{
				ExitDate: "15/03/2026", BadgeID: "1234",
				ExitCredential: "54321", Division: "Judicial",
			},
			field: "BadgeID",
		},
		{
			name: "badge number too long",
			req: models.ExitRequest{
				ExitDate: "15/03/2026", BadgeID: "1234567",
				ExitCredential: "54321", Division: "Judicial",
			},
			field: "BadgeID",
		},
		{
			name: "badge number with letters",
			req: models.ExitRequest{
				ExitDate: "15/03/2026", BadgeID: "12a45",
				ExitCredential: "54321", Division: "Judicial",
			},
			field: "BadgeID",
		},
		{
			name: "credential not five digits",
			req: models.ExitRequest{
				ExitDate: "15/03/2026", BadgeID: "12345",
				ExitCredential: "543", Division: "Judicial",
			},
			field: "ExitCredential",
		},
		{
			name: "missing division",
			req: models.ExitRequest{
				ExitDate: "15/03/2026", BadgeID: "12345",
				ExitCredential: "54321",
			},
			field: "Division",
		},
		{
			name:  "everything missing",
			req:   models.ExitRequest{},
			field: "ExitDate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vh.ValidateStruct(&tt.req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tt.field)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-15", "15/03/2026"},
		{"15/03/2026", "15/03/2026"},
		{"5/3/2026", "05/03/2026"},
	}
	for _, tt := range tests {
		got, err := normalizeDate(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "-", "ayer", "2026/03/15", "15-03-2026"} {
		_, err := normalizeDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestSameLedgerDate(t *testing.T) {
	assert.True(t, sameLedgerDate("15/03/2026", "15/03/2026"))
	assert.True(t, sameLedgerDate("5/3/2026", "05/03/2026"))
	assert.False(t, sameLedgerDate("15/03/2026", "16/03/2026"))
	// Sentinels only ever equal themselves.
	assert.True(t, sameLedgerDate("-", "-"))
	assert.False(t, sameLedgerDate("-", "15/03/2026"))
	assert.False(t, sameLedgerDate("", "15/03/2026"))
}
