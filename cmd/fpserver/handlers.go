package main

import (
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/high-horse/fpextract"
	"github.com/high-horse/fpextract/internal/logging"
	"github.com/high-horse/fpextract/template"
)

type server struct {
	extractor *fpextract.Extractor
	log       *logging.Logger
}

func (s *server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now(),
	})
}

func (s *server) extract(c *fiber.Ctx) error {
	start := time.Now()

	var req ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Image == "" {
		return fiber.NewError(fiber.StatusBadRequest, "image is required")
	}

	format, err := template.ParseFormat(req.Format)
	if err != nil {
		return err
	}
	data, err := decodePayload(req.Image)
	if err != nil {
		return err
	}

	opts := fpextract.ImageOptions{}
	if req.DPI != nil {
		opts = opts.WithDPI(*req.DPI)
	}

	tpl, err := s.extractor.Extract(data, opts)
	if err != nil {
		return err
	}
	b, err := template.Marshal(tpl, format)
	if err != nil {
		return err
	}
	s.log.Debugf("extracted %d minutiae from %dx%d image", len(tpl.Minutiae), tpl.Width, tpl.Height)

	return c.JSON(ExtractResponse{
		Template:   base64.StdEncoding.EncodeToString(b),
		Format:     format.String(),
		Minutiae:   len(tpl.Minutiae),
		Width:      tpl.Width,
		Height:     tpl.Height,
		Resolution: tpl.Resolution,
		Elapsed:    time.Since(start).String(),
	})
}

// statusOf maps pipeline error kinds onto HTTP statuses.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, fpextract.ErrDecode), errors.Is(err, fpextract.ErrInvalidConfiguration):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func (s *server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Printf("%s %s: %+v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(ErrorResponse{
		Error: err.Error(),
	})
}
