package identity

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/borkya1/smart-gallery/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(trustProxy bool) ResolverInterface {
	verifier := &testutil.MockVerifier{Tokens: map[string]models.Identity{
		"good": models.NewUser("uid-1", "a@example.com"),
	}}
	conf := &structures.Config{WebServer: structures.Server{TrustProxy: trustProxy}}
	return NewResolver(verifier, conf)
}

func request(auth, remote, forwarded string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/upload", nil)
	r.RemoteAddr = remote
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	if forwarded != "" {
		r.Header.Set("X-Forwarded-For", forwarded)
	}
	return r
}

func TestResolve_BearerUser(t *testing.T) {
	who, err := newResolver(false).Resolve(request("Bearer good", "10.0.0.1:5000", ""))

	require.NoError(t, err)
	assert.Equal(t, models.NewUser("uid-1", "a@example.com"), who)
}

func TestResolve_SchemeIsCaseInsensitive(t *testing.T) {
	who, err := newResolver(false).Resolve(request("bearer good", "10.0.0.1:5000", ""))

	require.NoError(t, err)
	assert.True(t, who.IsUser())
}

func TestResolve_GuestFromRemoteAddr(t *testing.T) {
	who, err := newResolver(false).Resolve(request("", "203.0.113.7:41234", "198.51.100.1"))

	require.NoError(t, err)
	assert.Equal(t, models.NewGuest("203.0.113.7"), who)
}

func TestResolve_GuestFromForwardedFor(t *testing.T) {
	who, err := newResolver(true).Resolve(request("", "10.0.0.1:5000", "198.51.100.1"))

	require.NoError(t, err)
	assert.Equal(t, "198.51.100.1", who.Key)
}

func TestResolve_ForwardedForUsesProxyAppendedHop(t *testing.T) {
	res := newResolver(true)
	keys := make(map[string]struct{})
	for i := 0; i < 30; i++ {
		forged := fmt.Sprintf("198.51.100.%d, 203.0.113.7", i)
		who, err := res.Resolve(request("", "10.0.0.1:5000", forged))

		require.NoError(t, err)
		keys[who.Key] = struct{}{}
	}

	assert.Equal(t, map[string]struct{}{"203.0.113.7": {}}, keys)
}

func TestResolve_ForwardedForIgnoredWithoutTrustProxy(t *testing.T) {
	who, err := newResolver(false).Resolve(request("", "10.0.0.1:5000", "198.51.100.1, 203.0.113.7"))

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", who.Key)
}

func TestResolve_BadForwardedForFallsBack(t *testing.T) {
	who, err := newResolver(true).Resolve(request("", "10.0.0.1:5000", "garbage"))

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", who.Key)
}

func TestResolve_MappedIPv4(t *testing.T) {
	who, err := newResolver(false).Resolve(request("", "[::ffff:203.0.113.7]:80", ""))

	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", who.Key)
}

func TestResolve_UnknownAddress(t *testing.T) {
	who, err := newResolver(false).Resolve(request("", "pipe", ""))

	require.NoError(t, err)
	assert.Equal(t, "unknown", who.Key)
}

func TestResolve_InvalidTokenIsNotGuest(t *testing.T) {
	for _, auth := range []string{"Bearer bad", "Bearer ", "Basic dXNlcjpwYXNz"} {
		_, err := newResolver(false).Resolve(request(auth, "10.0.0.1:5000", ""))
		assert.True(t, errors.Is(err, models.ErrUnauthenticated), auth)
	}
}

func TestRequireUser_MissingCredential(t *testing.T) {
	_, err := newResolver(false).RequireUser(request("", "10.0.0.1:5000", ""))

	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestRequireUser_Valid(t *testing.T) {
	who, err := newResolver(false).RequireUser(request("Bearer good", "10.0.0.1:5000", ""))

	require.NoError(t, err)
	assert.Equal(t, "uid-1", who.OwnerID())
}
