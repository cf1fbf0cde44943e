package identity

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
)

const unknownAddress = "unknown"

type ResolverInterface interface {
	// Resolve returns the user behind a bearer token, or a guest when the
	// request carries no credential. A credential that fails verification is
	// an error, never a silent downgrade to guest.
	Resolve(r *http.Request) (models.Identity, error)
	// RequireUser is Resolve without the guest fallback.
	RequireUser(r *http.Request) (models.Identity, error)
}

type Resolver struct {
	verifier   TokenVerifierInterface
	trustProxy bool
}

func NewResolver(verifier TokenVerifierInterface, conf *structures.Config) ResolverInterface {
	return &Resolver{
		verifier:   verifier,
		trustProxy: conf.WebServer.TrustProxy,
	}
}

func (res *Resolver) Resolve(r *http.Request) (models.Identity, error) {
	raw, present := bearerToken(r)
	if !present {
		return models.NewGuest(res.clientAddress(r)), nil
	}
	return res.verify(r, raw)
}

func (res *Resolver) RequireUser(r *http.Request) (models.Identity, error) {
	raw, present := bearerToken(r)
	if !present {
		return models.Identity{}, models.ErrUnauthenticated
	}
	return res.verify(r, raw)
}

func (res *Resolver) verify(r *http.Request, raw string) (models.Identity, error) {
	if raw == "" {
		return models.Identity{}, models.ErrUnauthenticated
	}
	return res.verifier.Verify(r.Context(), raw)
}

// bearerToken reports whether an Authorization header is present and returns
// its bearer credential, "" when the scheme is not Bearer.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// clientAddress is the guest key: the last X-Forwarded-For hop behind a
// trusted proxy, otherwise the peer address. Earlier hops are client supplied.
func (res *Resolver) clientAddress(r *http.Request) string {
	if res.trustProxy {
		if fwd := r.Header.Values("X-Forwarded-For"); len(fwd) > 0 {
			last := fwd[len(fwd)-1]
			if i := strings.LastIndexByte(last, ','); i >= 0 {
				last = last[i+1:]
			}
			if addr, ok := normalize(strings.TrimSpace(last)); ok {
				return addr
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if addr, ok := normalize(host); ok {
		return addr
	}
	return unknownAddress
}

func normalize(host string) (string, bool) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "", false
	}
	return addr.Unmap().WithZone("").String(), true
}
