package instrument

import (
	"math/rand"

	"github.com/gofiber/fiber/v2"
)

// Middleware attaches an instrumenter to every request and wraps the request
// in an http span. Requests sampled out get the noop instrumenter.
func Middleware(tracer *Tracer, samplingRate float64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var inst Instrumenter = tracer
		if tracer == nil || rand.Float64() >= samplingRate {
			inst = NoopInstrumenter{}
		}

		ctx := WithInstrumenter(c.UserContext(), inst)
		ctx, span := inst.StartSpan(ctx, "http", c.Method(), c.Path())
		c.SetUserContext(ctx)

		err := c.Next()

		if err != nil || c.Response().StatusCode() >= 400 {
			span.SetStatus("error")
		}
		span.SetMetadata("status_code", c.Response().StatusCode())
		span.End()
		return err
	}
}
