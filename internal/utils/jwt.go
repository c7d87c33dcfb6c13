package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned by DecodeAccessToken for any token that does
// not pass validation: bad signature, wrong algorithm, missing required
// claims or an expiry in the past. Decoding is all-or-nothing; callers never
// see partial claims.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the serialized JWT string and Exp the UTC
// expiration time. Access tokens are sent in the Authorization header when
// calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims carries the validated payload of a decoded access token.
type Claims struct {
	Subject  string         // "sub" claim, the user id as a string
	IssuedAt time.Time      // "iat" claim
	Expiry   time.Time      // "exp" claim
	Extra    map[string]any // every remaining claim (e.g. "roles")
}

// NewAccessToken builds and signs an HS256 JWT. It sets the mandatory
// claims, subject (sub), issued at (iat) and expiration (exp, now+ttl),
// plus a random token id (jti) so two tokens minted within the same second
// still serialize differently. Caller-supplied extra claims are merged into
// the payload but can never override the reserved keys: those are applied
// after the merge.
func NewAccessToken(secret, subject string, ttl time.Duration, extra map[string]any) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return AccessToken{}, err
	}

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = now.Unix()
	claims["exp"] = exp.Unix()
	claims["jti"] = hex.EncodeToString(nonce)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// DecodeAccessToken parses and validates a signed access token. The
// signature must verify with the given secret using an HMAC method, and the
// sub, iat and exp claims must all be present with exp in the future.
// Any failure yields ErrInvalidToken.
func DecodeAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm family.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithIssuedAt())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	iat, err := mc.GetIssuedAt()
	if err != nil || iat == nil {
		return Claims{}, ErrInvalidToken
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrInvalidToken
	}

	extra := make(map[string]any, len(mc))
	for k, v := range mc {
		switch k {
		case "sub", "iat", "exp", "jti":
		default:
			extra[k] = v
		}
	}
	return Claims{
		Subject:  sub,
		IssuedAt: iat.Time.UTC(),
		Expiry:   exp.Time.UTC(),
		Extra:    extra,
	}, nil
}
