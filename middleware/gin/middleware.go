package ginmw

import (
	"github.com/gin-gonic/gin"

	"github.com/reoring/coerce/middleware"
	"github.com/reoring/coerce/validate"
)

// ValidateJSON validates the request body with v, stores the value in the
// request context, and on failure aborts with the problem payload
// (422 for validation failures, 400 for unreadable bodies).
func ValidateJSON[T any](v validate.Validator[T], opts ...validate.Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, err := middleware.DecodeJSONBody(c.Request, v, opts...)
		if err != nil {
			p := middleware.ProblemFor(err)
			c.AbortWithStatusJSON(p.Status, p)
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithValue(c.Request.Context(), val))
		c.Next()
	}
}

// GetValue fetches the validated value from gin.Context.
func GetValue[T any](c *gin.Context) (T, bool) {
	return middleware.ValueFromContext[T](c.Request.Context())
}
