// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity represents the authenticated caller. It abstracts identity
// extraction from the web framework so handlers do not read claims directly.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() int64
	// Role returns the user's role (admin, magasinier, controleur, ...).
	Role() string
	// HasRole checks the user's role against one or more accepted roles.
	HasRole(roles ...string) bool
	// IsAuthenticated reports whether the caller is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	userID        int64
	role          string
	authenticated bool
}

func (i *identity) UserID() int64 {
	return i.userID
}

func (i *identity) Role() string {
	return i.role
}

func (i *identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.role == r {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context. Returns an
// unauthenticated identity when no user info is present.
func GetIdentity(c *gin.Context) Identity {
	rawUserID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{}
	}

	userID, ok := rawUserID.(int64)
	if !ok {
		return &identity{}
	}

	role := ""
	if rawRole, roleOK := c.Get(ContextRoleKey); roleOK {
		role, _ = rawRole.(string)
	}

	return &identity{userID: userID, role: role, authenticated: true}
}

// MustGetIdentity extracts the Identity from a Gin context, aborting with
// 401 Unauthorized and returning nil when the caller is not authenticated.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
