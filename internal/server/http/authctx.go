package httpserver

import (
	"github.com/gin-gonic/gin"

	"github.com/and161185/authgate/internal/model"
)

const (
	identityKey      = "authgate.identity"
	bundleKey        = "authgate.bundle"
	sessionStatusKey = "authgate.sessionStatus"
)

// IdentityFrom returns the identity admitted by the gates.
func IdentityFrom(c *gin.Context) (*model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.Identity)
	return u, ok && u != nil
}

// BundleFrom returns the bundle renewed by the access gate, if any.
func BundleFrom(c *gin.Context) *model.TokenBundle {
	v, ok := c.Get(bundleKey)
	if !ok {
		return nil
	}
	b, _ := v.(*model.TokenBundle)
	return b
}

func sessionStatusFrom(c *gin.Context) string {
	return c.GetString(sessionStatusKey)
}
