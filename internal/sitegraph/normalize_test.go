package sitegraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goinsight/internal/sitegraph"
)

func TestNormalize_LowercasesSchemeAndHost(t *testing.T) {
	t.Parallel()

	got, err := sitegraph.Normalize("HTTPS://Example.COM/Insights")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/Insights", got)
}

func TestNormalize_StripsDefaultPorts(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://example.com:443/reports": "https://example.com/reports",
		"http://example.com:80/reports":   "http://example.com/reports",
		"https://example.com:8443/x":      "https://example.com:8443/x",
	}
	for input, want := range cases {
		got, err := sitegraph.Normalize(input)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %s", input)
	}
}

func TestNormalize_RemovesTrackingParamsAndSortsQuery(t *testing.T) {
	t.Parallel()

	got, err := sitegraph.Normalize(
		"https://example.com/insights?utm_source=mail&page=2&utm_campaign=x&a=1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/insights?a=1&page=2", got)
}

func TestNormalize_TrimsTrailingSlashAndFragment(t *testing.T) {
	t.Parallel()

	got, err := sitegraph.Normalize("https://example.com/insights/#section")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/insights", got)
}

func TestNormalize_SameCanonicalFormForEquivalentURLs(t *testing.T) {
	t.Parallel()

	a, err := sitegraph.Normalize("https://Example.com:443/reports/?utm_medium=social")
	require.NoError(t, err)
	b, err := sitegraph.Normalize("https://example.com/reports")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalize_RejectsInvalidURLs(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "://missing-scheme", "https://", "not a url"} {
		_, err := sitegraph.Normalize(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestSameSite_SubdomainsShareRegistrableDomain(t *testing.T) {
	t.Parallel()

	assert.True(t, sitegraph.SameSite(
		"https://www.example.com/a", "https://insights.example.com/b"))
	assert.False(t, sitegraph.SameSite(
		"https://example.com/a", "https://other.org/b"))
}

func TestRegistrableDomain_FallsBackForLocalHosts(t *testing.T) {
	t.Parallel()

	got, err := sitegraph.RegistrableDomain("http://localhost:8080/x")
	require.NoError(t, err)
	assert.Equal(t, "localhost", got)

	got, err = sitegraph.RegistrableDomain("http://127.0.0.1:9090/y")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", got)
}
