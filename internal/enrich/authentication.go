package enrich

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

const jwksCacheTTL = 10 * time.Minute

// AuthenticationEnrichment validates a Bearer JWT on the Authorization
// header, if present, and attaches the token's subject as collector_auth.
// Keys are resolved per issuer from a JWKS endpoint configured by
// IssuerJWKSURLs; an unverifiable or malformed token is not a hard failure
// for the candidate event, it simply leaves collector_auth unset.
type AuthenticationEnrichment struct {
	IssuerJWKSURLs map[string]string

	client *http.Client
	log    *logrus.Entry

	mu   sync.Mutex
	keys map[string]*jwksCache
}

type jwksCache struct {
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksResponse struct {
	Keys []jwk `json:"keys"`
}

// NewAuthenticationEnrichment builds an AuthenticationEnrichment that
// resolves RS256 keys from issuerJWKSURLs (issuer -> JWKS endpoint).
func NewAuthenticationEnrichment(issuerJWKSURLs map[string]string, log *logrus.Entry) *AuthenticationEnrichment {
	return &AuthenticationEnrichment{
		IssuerJWKSURLs: issuerJWKSURLs,
		client:         &http.Client{Timeout: 5 * time.Second},
		log:            log,
		keys:           make(map[string]*jwksCache),
	}
}

func (a *AuthenticationEnrichment) Enrich(pad *Scratchpad) error {
	if len(a.IssuerJWKSURLs) == 0 {
		return nil
	}
	header := pad.Payload.HeadersMap()["authorization"]
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, a.keyFunc)
	if err != nil {
		if a.log != nil {
			a.log.WithError(err).Debug("enrich: jwt verification failed")
		}
		return nil
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	return pad.SetValue("collector_auth", sub)
}

func (a *AuthenticationEnrichment) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != "RS256" {
		return nil, fmt.Errorf("enrich: unsupported jwt algorithm %s", token.Method.Alg())
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("enrich: jwt missing claims")
	}
	iss, _ := claims["iss"].(string)
	kid, _ := token.Header["kid"].(string)
	if iss == "" || kid == "" {
		return nil, fmt.Errorf("enrich: jwt missing iss/kid")
	}

	jwksURL, ok := a.IssuerJWKSURLs[iss]
	if !ok {
		return nil, fmt.Errorf("enrich: unknown jwt issuer %q", iss)
	}

	keys, err := a.jwksFor(iss, jwksURL)
	if err != nil {
		return nil, err
	}
	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("enrich: unknown jwt kid %q for issuer %q", kid, iss)
	}
	return key, nil
}

func (a *AuthenticationEnrichment) jwksFor(issuer, jwksURL string) (map[string]*rsa.PublicKey, error) {
	a.mu.Lock()
	if c, ok := a.keys[issuer]; ok && time.Now().Before(c.expiresAt) {
		a.mu.Unlock()
		return c.keys, nil
	}
	a.mu.Unlock()

	resp, err := a.client.Get(jwksURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrich: jwks endpoint %s returned status %d", jwksURL, resp.StatusCode)
	}

	var body jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(body.Keys))
	for _, k := range body.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	a.mu.Lock()
	a.keys[issuer] = &jwksCache{keys: keys, expiresAt: time.Now().Add(jwksCacheTTL)}
	a.mu.Unlock()

	return keys, nil
}

func parseRSAPublicKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}
