package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/andescargo/tracking-gateway/internal/model"
	xhttp "github.com/andescargo/tracking-gateway/pkg/http"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the registered claims plus the actor identity the
// gateway needs for authorization decisions.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

func GenerateToken(userID, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string, secretKey []byte) (*model.Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &model.Session{UserID: claims.UserID, Role: claims.Role}, nil
}

// Verifier is the authentication collaborator at its interface boundary:
// given request headers it yields a session or nothing.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// SessionFromRequest returns the authenticated session carried by the
// Authorization header, or nil when the request is unauthenticated. An
// invalid or expired token is treated the same as no token.
func (v *Verifier) SessionFromRequest(ctx *xhttp.RequestCtx) *model.Session {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return nil
	}

	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}

	session, err := ParseToken(strings.TrimSpace(tokenString), v.secret)
	if err != nil {
		return nil
	}
	return session
}
