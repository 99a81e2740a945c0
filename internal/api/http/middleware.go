package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/trouble-tickets/internal/observability"
	apperrors "github.com/spec-kit/trouble-tickets/pkg/util"
)

// RegisterMiddlewares wires the global middleware chain: request timeout,
// error rendering with panic recovery, then request logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, requestTimeout time.Duration) {
	app.Use(requestTimeoutMiddleware(requestTimeout))
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware converts handler errors into the JSON error
// envelope. Every error is normalized through the taxonomy so storage and
// transport failures never leak raw messages.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)
				err = renderError(c, metrics, apperrors.NewInternalError(fiber.ErrInternalServerError))
			}
		}()

		if err = c.Next(); err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				metrics.RecordError(c.Path(), c.Method(), "HTTP_ERROR")
				return c.Status(fiberErr.Code).JSON(fiber.Map{
					"error": fiber.Map{
						"code":    "HTTP_ERROR",
						"message": fiberErr.Message,
					},
				})
			}
			domainErr := apperrors.ToDomainError(err)
			if domainErr.Code == "INTERNAL_ERROR" {
				logger.Error("request failed",
					zap.Error(err),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)
			}
			return renderError(c, metrics, domainErr)
		}
		return nil
	}
}

func renderError(c *fiber.Ctx, metrics *observability.Metrics, err error) error {
	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}
