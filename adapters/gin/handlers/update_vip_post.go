package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/PaulFidika/vipbridge/adapters/ginutil"
	"github.com/PaulFidika/vipbridge/entitlements"
	"github.com/PaulFidika/vipbridge/metrics"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UpdateVIPBodyLimit caps the ingest request body.
const UpdateVIPBodyLimit = 64 << 10

const (
	msgMissingFields = "Missing data: userId, username, or gamePass"
	msgUpdated       = "VIP data updated successfully."
)

// Upserter is the write side of the entitlement store.
type Upserter interface {
	Upsert(ctx context.Context, userID, username, gamePass string) entitlements.Result
}

// opaqueValue accepts a JSON string or number and keeps its text verbatim.
// Any other JSON type decodes to the empty value and counts as missing.
type opaqueValue string

func (o *opaqueValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*o = ""
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = opaqueValue(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*o = opaqueValue(n.String())
	}
	return nil
}

// HandleUpdateVIPPOST handles POST /update-vip
//
// The game server reports a purchase. The record is stored once per (userId, gamePass);
// repeated calls answer 200 without changing anything.
func HandleUpdateVIPPOST(store Upserter, rl ginutil.RateLimiter) gin.HandlerFunc {
	type updateVIPReq struct {
		UserID   opaqueValue `json:"userId"`
		Username opaqueValue `json:"username"`
		GamePass opaqueValue `json:"gamePass"`
	}
	return func(c *gin.Context) {
		start := time.Now()
		created := false
		defer func() {
			metrics.IngestRequestsTotal.WithLabelValues(strconv.Itoa(c.Writer.Status()), strconv.FormatBool(created)).Inc()
			metrics.IngestDuration.Observe(time.Since(start).Seconds())
		}()

		if !ginutil.AllowNamed(c, rl, ginutil.RLUpdateVIP) {
			ginutil.TooMany(c)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, UpdateVIPBodyLimit)
		var req updateVIPReq
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body_too_large"})
				return
			}
			ginutil.BadRequest(c, "invalid_json", "Request body must be a JSON object")
			return
		}
		if req.UserID == "" || req.Username == "" || req.GamePass == "" {
			ginutil.BadRequest(c, "missing_fields", msgMissingFields)
			return
		}

		res := store.Upsert(c.Request.Context(), string(req.UserID), string(req.Username), string(req.GamePass))
		created = res.Created
		if res.Changed() {
			logrus.WithFields(logrus.Fields{
				"user_id":   res.Record.UserID,
				"username":  res.Record.Username,
				"game_pass": res.Record.GamePass,
				"created":   res.Created,
			}).Info("vip entitlement recorded")
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": msgUpdated, "created": res.Created})
	}
}
