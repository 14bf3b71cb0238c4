package middlewares

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/idempotency"
	"github.com/yeremiapane/table-session/utils"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 128
)

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency answers a repeated request carrying the same Idempotency-Key
// within scope with the first response instead of executing it again. scope
// returns the caller identity the key is bound to, so two callers can never
// see each other's responses. Only successful responses are kept; a failed
// request releases its key.
func Idempotency(store idempotency.Store, scope func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKey {
			utils.RespondErrorCode(c, http.StatusBadRequest, "validation", "idempotency key too long")
			c.Abort()
			return
		}

		sum := sha256.Sum256([]byte(c.Request.Method + " " + c.FullPath() + "\x00" + scope(c) + "\x00" + key))
		storeKey := hex.EncodeToString(sum[:])
		ctx := c.Request.Context()

		prev, err := store.Begin(ctx, storeKey)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			utils.RespondErrorCode(c, http.StatusConflict, "idempotency_in_progress", err.Error())
			c.Abort()
			return
		case err != nil:
			// Store down: serve without replay protection.
			utils.ErrorLogger.WithFields(logrus.Fields{"error": err}).Error("idempotency store unavailable")
			c.Next()
			return
		case prev != nil:
			c.Header(ReplayedHeader, "true")
			c.Data(prev.Status, prev.ContentType, prev.Body)
			c.Abort()
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= 200 && status < 300 {
			err = store.Complete(ctx, storeKey, idempotency.Response{
				Status:      status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			})
		} else {
			err = store.Release(ctx, storeKey)
		}
		if err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"error": err}).Error("idempotency store update failed")
		}
	}
}
