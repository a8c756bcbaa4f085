package auth

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated subject a token is issued for. Only ID is
// required; nil optional fields are left out of the token.
type Principal struct {
	ID                string
	Email             *string
	Role              *string
	SubscriptionLevel *string
	IsActive          *bool
}

// Claims is the payload of an issued token.
type Claims struct {
	jwt.RegisteredClaims
	Email             *string `json:"email,omitempty"`
	Role              *string `json:"role,omitempty"`
	SubscriptionLevel *string `json:"subscriptionLevel,omitempty"`
	IsActive          *bool   `json:"isActive,omitempty"`
}

// Subject is what a token can be issued for: FromPrincipal or FromRawClaims.
type Subject interface {
	tokenClaims(issuer string, issuedAt, expiresAt time.Time) jwt.Claims
}

// FromPrincipal issues a token for a known principal.
type FromPrincipal Principal

// FromRawClaims issues a token carrying arbitrary claims. Nil values are
// dropped, a non-string "sub" is converted to its decimal form, and iss, iat
// and exp are always overwritten by the codec.
type FromRawClaims map[string]any

func (p FromPrincipal) tokenClaims(issuer string, issuedAt, expiresAt time.Time) jwt.Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:             p.Email,
		Role:              p.Role,
		SubscriptionLevel: p.SubscriptionLevel,
		IsActive:          p.IsActive,
	}
}

func (r FromRawClaims) tokenClaims(issuer string, issuedAt, expiresAt time.Time) jwt.Claims {
	m := make(jwt.MapClaims, len(r)+3)
	for k, v := range r {
		if isNull(v) {
			continue
		}
		m[k] = v
	}
	if sub, ok := m["sub"]; ok {
		m["sub"] = subjectString(sub)
	}
	m["iss"] = issuer
	m["iat"] = jwt.NewNumericDate(issuedAt)
	m["exp"] = jwt.NewNumericDate(expiresAt)
	return m
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func subjectString(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}
	return fmt.Sprint(rv.Interface())
}

// Ptr returns a pointer to v. Handy for optional Principal fields.
func Ptr[T any](v T) *T {
	return &v
}
