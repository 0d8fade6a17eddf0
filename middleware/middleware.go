package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"learnspace/globals"
	"learnspace/models"
	"learnspace/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and checks HS256 session tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (a *Auth) TTL() time.Duration {
	return a.ttl
}

// Issue signs a token for the user.
func (a *Auth) Issue(u models.User) (string, error) {
	now := a.now()
	claims := &Claims{
		Name:   u.Name,
		UserID: u.ID,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("missing token")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("unauthorized: invalid token")
	}
	return claims, nil
}

// TokenFromRequest takes the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if c, err := r.Cookie(globals.AuthCookie); err == nil {
		return c.Value
	}
	return ""
}

func withClaims(r *http.Request, claims *Claims) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
	return r.WithContext(ctx)
}

func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := a.ValidateJWT(TokenFromRequest(r))
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, withClaims(r, claims), ps)
	}
}

// OptionalAuth attaches the user when a valid token is present and proceeds
// either way.
func (a *Auth) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if claims, err := a.ValidateJWT(TokenFromRequest(r)); err == nil {
			r = withClaims(r, claims)
		}
		next(w, r, ps)
	}
}

// RequireRole authenticates and then admits only the listed roles. Admin is
// always admitted.
func (a *Auth) RequireRole(roles ...models.Role) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return a.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			role := models.Role(utils.GetRoleFromRequest(r))
			if role == models.RoleAdmin {
				next(w, r, ps)
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next(w, r, ps)
					return
				}
			}
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		})
	}
}
