package server

import (
	"github.com/gin-gonic/gin"

	"github.com/ftthdiag/diagchat/models"
)

// Session identifies the authenticated caller of one request.
type Session struct {
	UserID   string
	UserType string
}

// Authenticator resolves a request into a session, or fails unauthorized.
type Authenticator interface {
	Authenticate(c *gin.Context) (Session, error)
}

// HeaderAuthenticator trusts identity headers set by the fronting proxy.
// The service itself never sees credentials; the proxy terminates auth
// and forwards the resolved identity.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(c *gin.Context) (Session, error) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		return Session{}, models.NewChatError(models.ErrUnauthorized, "missing X-User-ID header")
	}
	userType := c.GetHeader("X-User-Type")
	if userType == "" {
		userType = models.UserTypeRegular
	}
	if _, ok := models.EntitlementsByUserType[userType]; !ok {
		return Session{}, models.NewChatError(models.ErrUnauthorized, "unknown user type %q", userType)
	}
	return Session{UserID: userID, UserType: userType}, nil
}
