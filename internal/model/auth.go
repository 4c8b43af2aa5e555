package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims identifying a player connection
type UserClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims
func (c *UserClaims) Identity() Identity {
	return Identity{ID: c.UserID, Name: c.Name}
}
