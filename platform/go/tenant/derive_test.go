package tenant

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		identifier string
		want       bool
	}{
		{"acme", true},
		{"acme-corp", true},
		{"a1", true},
		{"9lives", true},
		{"a", false},
		{"", false},
		{"Acme", false},
		{"acme corp", false},
		{"-acme", false},
		{"acme_corp", false},
		{strings.Repeat("a", 63), true},
		{strings.Repeat("a", 64), false},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			require.Equal(t, tt.want, ValidIdentifier(tt.identifier))
		})
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "acme"},
		{"Acme Corp", "acmecorp"},
		{"acme-corp", "acmecorp"},
		{"a.b_c!d", "abcd"},
		{"ACME-2024", "acme2024"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeIdentifier(tt.in))
	}
}

func TestBuildDatabaseName(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	require.Equal(t, "acmecorp_20250314092653_db", BuildDatabaseName("Acme-Corp", at))
}

func TestBuildDatabaseNameDistinctPerSecond(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	first := BuildDatabaseName("acme", at)
	second := BuildDatabaseName("acme", at.Add(time.Second))
	require.NotEqual(t, first, second)
	require.True(t, strings.HasPrefix(first, "acme_"))
	require.True(t, strings.HasSuffix(first, "_db"))
}

func TestBuildDatabaseNameLocalTimeNormalizedToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2025, 3, 14, 14, 0, 0, 0, loc)
	require.Equal(t, "acme_20250314090000_db", BuildDatabaseName("acme", at))
}
