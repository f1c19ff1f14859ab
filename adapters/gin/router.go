// Package vipgin wires the webhook ingest surface onto a gin engine.
package vipgin

import (
	"context"
	"net/http"
	"time"

	"github.com/PaulFidika/vipbridge/adapters/gin/handlers"
	"github.com/PaulFidika/vipbridge/adapters/ginutil"
	"github.com/PaulFidika/vipbridge/apikey"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Store is what the router needs from the entitlement store.
type Store interface {
	handlers.Upserter
	Ping(ctx context.Context) error
}

// Options configures NewRouter.
type Options struct {
	Store       Store
	Verifier    *apikey.Verifier
	AuthHeader  string
	RateLimiter ginutil.RateLimiter
	Logger      logrus.FieldLogger
	// Metrics mounts GET /metrics when true.
	Metrics bool
}

// NewRouter builds the engine: POST /update-vip behind the shared secret, plus health probes.
func NewRouter(o Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(o.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := o.Store.Ping(ctx); err != nil {
			_ = c.Error(err)
			ginutil.Unavailable(c, "store_unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if o.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.POST("/update-vip", APIKey(o.Verifier, o.AuthHeader), handlers.HandleUpdateVIPPOST(o.Store, o.RateLimiter))
	return r
}
