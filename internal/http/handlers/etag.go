package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag hashes the payload just read from the store and
// short-circuits to 304 on an If-None-Match hit. Nothing is cached server
// side; every request still reads fresh.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	sum := sha256.Sum256(b)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	ctx.Header("ETag", etag)

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", b)
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	if strings.TrimSpace(headerValue) == "" {
		return false
	}

	if strings.TrimSpace(headerValue) == "*" {
		return true
	}

	for _, part := range strings.Split(headerValue, ",") {
		v := strings.TrimSpace(part)

		// RFC allows weak validators like W/"abc".
		v = strings.TrimPrefix(v, "W/")

		if strings.TrimSpace(v) == currentETag {
			return true
		}
	}

	return false
}
