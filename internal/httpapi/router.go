// Package httpapi serves the reminder backup API used by browser clients.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/remote"
)

const identityKey = "identity"

type Options struct {
	Backend        remote.Backend
	Authenticator  auth.Authenticator
	AllowedOrigins []string
	RatePerMinute  int
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with cors, per-client rate limiting and
// bearer authentication in front of the sync routes.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("httpapi")

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 1 && opts.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = opts.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": opts.Backend.Name()})
	})

	h := &handler{backend: opts.Backend, log: log}
	api := r.Group("/api")
	api.Use(rateLimit(opts.RatePerMinute), requireIdentity(opts.Authenticator))
	{
		api.POST("/sync", h.sync)
		api.GET("/sync", h.load)
	}
	return r
}

func requireIdentity(a auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var ident auth.Identity
			ident, err = a.Authenticate(token)
			if err == nil {
				c.Set(identityKey, ident)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - Please sign in with Google"})
	}
}

func identityFrom(c *gin.Context) auth.Identity {
	v, _ := c.Get(identityKey)
	ident, _ := v.(auth.Identity)
	return ident
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimit applies a token bucket per client IP. Idle buckets are dropped
// after five minutes.
func rateLimit(perMinute int) gin.HandlerFunc {
	limit := rate.Every(time.Minute / time.Duration(max(perMinute, 1)))
	burst := max(perMinute/2, 1)

	var mu sync.Mutex
	visitors := map[string]*visitor{}

	return func(c *gin.Context) {
		now := time.Now()
		mu.Lock()
		for ip, v := range visitors {
			if now.Sub(v.lastSeen) > 5*time.Minute {
				delete(visitors, ip)
			}
		}
		v, ok := visitors[c.ClientIP()]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(limit, burst)}
			visitors[c.ClientIP()] = v
		}
		v.lastSeen = now
		allowed := v.limiter.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
