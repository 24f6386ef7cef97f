package handlers

import (
	"errors"
	"fmt"

	"github.com/andesco/catalogproxy/pkg/catalog"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const (
	messageOK          = "ok"
	messageBadRequest  = "invalid request parameters"
	messageFetchFailed = "failed to fetch catalog data"
)

// Catalog is a Fiber handler that fetches a normalized catalog page through
// lister. Successful responses are cacheable for cacheTime seconds.
func Catalog(lister catalog.Lister, cacheTime int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := catalog.ParseQuery(
			c.Query("type"),
			c.Query("tag"),
			c.Query("pageSize"),
			c.Query("pageStart"),
		)
		if err != nil {
			log.WithError(err).WithField("request_id", requestID(c)).Debug("rejected catalog request")
			return sendError(c, err)
		}

		items, err := lister.List(c.UserContext(), q)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"type":       q.Type,
				"tag":        q.Tag,
				"request_id": requestID(c),
			}).Error("catalog fetch failed")
			return sendError(c, err)
		}

		setCacheHeaders(c, cacheTime)
		return c.JSON(catalog.Result{
			Code:    fiber.StatusOK,
			Message: messageOK,
			List:    items,
		})
	}
}

func setCacheHeaders(c *fiber.Ctx, cacheTime int) {
	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d, s-maxage=%d", cacheTime, cacheTime))
	c.Set("CDN-Cache-Control", fmt.Sprintf("public, s-maxage=%d", cacheTime))
	c.Set("Vercel-CDN-Cache-Control", fmt.Sprintf("public, s-maxage=%d", cacheTime))
	c.Set("Netlify-Vary", "query")
	c.Vary(fiber.HeaderAcceptEncoding)
}

// sendError writes the failure envelope. Parameter errors are the caller's
// fault; everything else is reported as an upstream failure.
func sendError(c *fiber.Ctx, err error) error {
	status, message := fiber.StatusInternalServerError, messageFetchFailed
	if catalog.IsBadRequest(err) {
		status, message = fiber.StatusBadRequest, messageBadRequest
	}

	details := err.Error()
	if errors.Is(err, catalog.ErrUpstreamTimeout) {
		details = catalog.ErrUpstreamTimeout.Error()
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(status).JSON(catalog.ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
