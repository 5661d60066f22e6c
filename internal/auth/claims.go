// Package auth resolves the signed-in user from the stored bearer token.
//
// The client never verifies signatures; that is the API's job. It only reads
// the claims to learn who the token belongs to.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finboard/internal/core"
)

var (
	ErrNoToken      = errors.New("no auth token")
	ErrTokenExpired = errors.New("auth token expired")
)

// Claims are the identity fields finboard reads from a token.
type Claims struct {
	UserID    string
	Username  string
	Email     string
	ExpiresAt time.Time
}

var parser = jwt.NewParser()

// ParseClaims reads the token's claims without verifying its signature.
func ParseClaims(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrNoToken
	}
	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	c := Claims{
		UserID:   firstString(mc, "user_id", "userId", "id", "uid"),
		Username: firstString(mc, "username", "preferred_username", "name"),
		Email:    firstString(mc, "email"),
	}
	sub := firstString(mc, "sub")
	if c.UserID == "" && isNumeric(sub) {
		c.UserID = sub
	}
	if c.Username == "" && sub != "" && !isNumeric(sub) {
		c.Username = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether the claims carry an expiry before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ResolveUser turns a stored token and username into the current user.
// Opaque (non-JWT) tokens resolve to a user without an id.
func ResolveUser(token, storedUsername string, now time.Time) (core.User, error) {
	if token == "" {
		return core.User{}, ErrNoToken
	}
	claims, err := ParseClaims(token)
	if err != nil {
		return core.User{Username: storedUsername}, nil
	}
	if claims.Expired(now) {
		return core.User{}, ErrTokenExpired
	}
	u := core.User{
		ID:       claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
	}
	if u.Username == "" {
		u.Username = storedUsername
	}
	return u, nil
}

func firstString(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		v, ok := mc[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(val, 10)
		}
	}
	return ""
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
