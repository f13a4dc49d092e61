package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipart boundaries and part headers add a little on top of the file itself
const multipartOverhead = int64(8 * 1024)

// SizeLimit caps the request body, used on the resume upload route so oversized
// PDFs are cut off while streaming instead of buffered in full. Reads past the
// cap surface as http.MaxBytesError, which the upload handler maps to 413.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes+multipartOverhead)

		c.Next()
	}
}
