package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the engine with recovery and request logging. Forwarding
// headers are honoured only from trustedProxies; with none, the client IP is
// the connection's remote address.
func NewRouter(trustedProxies []string, log logrus.FieldLogger) (*gin.Engine, error) {
	router := gin.New()
	if len(trustedProxies) == 0 {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	router.Use(gin.Recovery(), RequestLogger(log))
	return router, nil
}
