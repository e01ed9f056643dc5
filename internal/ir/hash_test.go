package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fingerprintPlan() *ValidationPlan {
	return &ValidationPlan{
		SchemaSource: "movies.shex",
		Shapes:       []string{"http://example.org/movies#Movie"},
		Mapping:      NewMapping(),
		Checks: []Check{
			&PropertyExists{
				Meta:     Meta{ID: "movie-title-exists", TargetLabel: "Movie", Severity: SeverityViolation},
				Property: "title",
			},
		},
	}
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("payload")

	a := hashWithDomain("graphlint/plan/v1", data)
	b := hashWithDomain("graphlint/other/v1", data)

	assert.NotEqual(t, a, b, "different domains must produce different hashes")
	assert.Len(t, a, 64, "SHA-256 hex is 64 characters")
}

func TestHashWithDomainBoundary(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must not collide thanks to the separator.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestFingerprintDeterminism(t *testing.T) {
	fp1, err := fingerprintPlan().Fingerprint()
	require.NoError(t, err)
	fp2, err := fingerprintPlan().Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2, "Fingerprint must be deterministic")
}

func TestFingerprintIgnoresSource(t *testing.T) {
	p1 := fingerprintPlan()
	p2 := fingerprintPlan()
	p2.SchemaSource = "movies.shacl.ttl"

	fp1, err := p1.Fingerprint()
	require.NoError(t, err)
	fp2, err := p2.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
}

func TestFingerprintChangesWithChecks(t *testing.T) {
	p1 := fingerprintPlan()
	p2 := fingerprintPlan()
	p2.Checks[0].Base().Severity = SeverityWarning

	fp1, err := p1.Fingerprint()
	require.NoError(t, err)
	fp2, err := p2.Fingerprint()
	require.NoError(t, err)

	assert.NotEqual(t, fp1, fp2)
}
