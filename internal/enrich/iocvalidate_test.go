package enrich

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/oracle"
)

func TestValidateIoCLeavesSubtypeEmptyWhereSpecGivesNoRefinement(t *testing.T) {
	cases := []struct {
		candidate oracle.IoCCandidate
		wantType  models.IoCType
	}{
		{oracle.IoCCandidate{Value: "CVE-2025-1234", Type: "vulnerability"}, models.IoCTypeVulnerability},
		{oracle.IoCCandidate{Value: "evil.example", Type: "domain"}, models.IoCTypeDomain},
		{oracle.IoCCandidate{Value: "https://evil.example/payload", Type: "url"}, models.IoCTypeURL},
		{oracle.IoCCandidate{Value: "attacker@evil.example", Type: "email"}, models.IoCTypeEmail},
	}

	for _, tc := range cases {
		ioc, ok := validateIoC(tc.candidate, "https://example.com/report")
		require.True(t, ok, tc.candidate.Value)
		require.Equal(t, tc.wantType, ioc.Type)
		require.Empty(t, ioc.Subtype, tc.candidate.Value)
	}
}

func TestValidateIoCDerivesSubtypeForIPAndHash(t *testing.T) {
	ip, ok := validateIoC(oracle.IoCCandidate{Value: "1.2.3.4", Type: "ip"}, "")
	require.True(t, ok)
	require.Equal(t, "ipv4", ip.Subtype)

	hash, ok := validateIoC(oracle.IoCCandidate{Value: "d41d8cd98f00b204e9800998ecf8427e", Type: "hash"}, "")
	require.True(t, ok)
	require.Equal(t, "md5", hash.Subtype)
}

func TestValidateIoCVulnerabilityExactShape(t *testing.T) {
	ioc, ok := validateIoC(oracle.IoCCandidate{Value: "cve-2025-1234", Type: "vulnerability", Comment: "remote code execution"}, "")
	require.True(t, ok)
	require.Equal(t, models.IoC{
		Value:   "CVE-2025-1234",
		Type:    models.IoCTypeVulnerability,
		Subtype: "",
		Comment: "remote code execution",
	}, ioc)
}
