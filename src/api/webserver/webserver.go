package webserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/atulbakery/ishan-assistant/src/api/config"
	"github.com/atulbakery/ishan-assistant/src/api/types"
	"github.com/atulbakery/ishan-assistant/src/logging"
	"github.com/atulbakery/ishan-assistant/src/session"
)

// Broadcaster writes marketing messages.
type Broadcaster interface {
	GenerateBroadcast(ctx context.Context, topic, audience, tone string) string
}

// OrderLister reads the confirmed-order ledger.
type OrderLister interface {
	Recent(ctx context.Context, limit int) ([]types.ConfirmedOrder, error)
}

// Deps are the collaborators behind the HTTP API. Ledger and DB are optional.
type Deps struct {
	Config      config.Config
	Service     *session.Service
	Broadcaster Broadcaster
	Ledger      OrderLister
	DB          *gorm.DB
}

// New builds the router. Background work started here stops when ctx is done.
func New(ctx context.Context, d Deps) *gin.Engine {
	g := gin.New()
	g.Use(logging.GinLogger(), gin.Recovery())
	attachRoutes(ctx, g, d)
	g.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"err": "not found"})
	})
	return g
}
