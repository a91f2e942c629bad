package middleware

import (
	"net/http"

	"queuecast/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware renders the last handler error as {"message": ...}.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		appErr := errors.GetAppError(err)
		if appErr != nil {
			fields := []interface{}{
				"code", appErr.Code,
				"message", appErr.Message,
				"status", appErr.HTTPStatus,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			}
			if appErr.Cause != nil {
				fields = append(fields, "cause", appErr.Cause.Error())
			}
			if appErr.Code == errors.ErrCodeInternal {
				logger.Errorw("application error", fields...)
			} else {
				logger.Debugw("request rejected", fields...)
			}

			c.JSON(appErr.HTTPStatus, gin.H{"message": appErr.Message})
			return
		}

		logger.Errorw("unhandled error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)

		c.JSON(http.StatusBadRequest, gin.H{"message": "Internal server error"})
	}
}

// RecoveryMiddleware turns panics into the generic failure response.
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Internal server error"})
			}
		}()

		c.Next()
	}
}
