package middleware

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sirosfoundation/go-ehms-backend/internal/apperror"
)

// JSONBody enforces JSON request bodies on POST, PUT and PATCH and caps
// their size at maxBytes. Requests without a body pass through.
func JSONBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		if !hasBody(c.Request) {
			c.Next()
			return
		}

		if !isJSON(c.ContentType()) {
			abortWithError(c, apperror.BadRequest("Content-Type must be application/json", nil).
				WithStatus(http.StatusUnsupportedMediaType))
			return
		}

		if maxBytes > 0 {
			if c.Request.ContentLength > maxBytes {
				abortWithError(c, apperror.BadRequest("Request body too large", nil).
					WithStatus(http.StatusRequestEntityTooLarge))
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}

// BodyError maps a bind failure to the matching client error
func BodyError(err error) *apperror.Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.BadRequest("Request body too large", err).WithStatus(http.StatusRequestEntityTooLarge)
	}
	return apperror.BadRequest("Invalid request body", err)
}

func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	return r.ContentLength != 0 || len(r.TransferEncoding) > 0
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
