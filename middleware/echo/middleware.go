package echomw

import (
	"github.com/labstack/echo/v4"

	"github.com/reoring/coerce/middleware"
	"github.com/reoring/coerce/validate"
)

// ValidateJSON validates the request body with v, stores the value in the
// request context on success, or answers with the problem payload
// (422 for validation failures, 400 for unreadable bodies).
func ValidateJSON[T any](v validate.Validator[T], opts ...validate.Option) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			val, err := middleware.DecodeJSONBody(c.Request(), v, opts...)
			if err != nil {
				p := middleware.ProblemFor(err)
				return c.JSON(p.Status, p)
			}
			ctx := middleware.ContextWithValue(c.Request().Context(), val)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetValue fetches the validated value from echo.Context.
func GetValue[T any](c echo.Context) (T, bool) {
	return middleware.ValueFromContext[T](c.Request().Context())
}
