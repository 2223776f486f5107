package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const buyerIDKey = "buyer_id"

// Logger is a middleware that logs the request details
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Str("user-agent", c.Request.UserAgent()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request processed")
	}
}

// Recovery recovers from panics and logs the error
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Msg("Recovered from panic")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// BuyerID resolves the acting buyer from the X-Buyer-ID header set by the
// API gateway after authentication. Requests without it are rejected.
func BuyerID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Buyer-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-Buyer-ID header"})
			return
		}

		buyerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || buyerID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-Buyer-ID header"})
			return
		}

		c.Set(buyerIDKey, buyerID)
		c.Next()
	}
}

// GetBuyerID returns the buyer resolved by the BuyerID middleware.
func GetBuyerID(c *gin.Context) int64 {
	return c.GetInt64(buyerIDKey)
}
