// Package auth mints and checks the HS256 access tokens the chat front-end
// attaches to gRPC calls. The AccountID claim is the messaging-platform user
// id the call acts for.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims plus the acting account.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64
}

func GenerateToken(accountID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		AccountID: accountID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetAccountIDFromToken validates tokenString and returns its account id.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// validation yields common.ErrorUnauthorized.
func GetAccountIDFromToken(tokenString string, secretKey []byte) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrTokenExpired
		}
		return 0, common.ErrorUnauthorized
	}

	if !token.Valid || claims.AccountID == 0 {
		return 0, common.ErrorUnauthorized
	}

	return claims.AccountID, nil
}
