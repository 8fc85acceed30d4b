package server

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ironsheep/focus-ocr/internal/pipeline"
)

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (s *Server) handleCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	info := s.proc.Engine().Info()
	status, code := "ok", fiber.StatusOK
	if !info.Available {
		status, code = "degraded", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":         status,
		"version":        s.opts.Version,
		"engine":         info,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// handleOCR accepts a multipart form with an "image" file and an optional
// "focus" field.
func (s *Server) handleOCR(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, pipeline.KindInvalidInput, `field "image" is required`)
	}
	if file.Size > int64(s.opts.MaxUploadBytes) {
		return writeError(c, fiber.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Sprintf("image is %d bytes, limit is %d", file.Size, s.opts.MaxUploadBytes))
	}

	f, err := file.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, pipeline.KindInvalidInput, "failed to read image file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, pipeline.KindInvalidInput, "failed to read image file")
	}

	resp, err := s.proc.Process(c.UserContext(), pipeline.Upload{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
		Focus:       c.FormValue("focus"),
	})
	if err != nil {
		return s.writeProcessError(c, err)
	}
	return c.JSON(resp)
}

func (s *Server) writeProcessError(c *fiber.Ctx, err error) error {
	var pe *pipeline.Error
	if !errors.As(err, &pe) {
		return err
	}

	code := fiber.StatusInternalServerError
	switch pe.Kind {
	case pipeline.KindInvalidInput, pipeline.KindDecode:
		code = fiber.StatusBadRequest
	case pipeline.KindOCRTimeout:
		code = fiber.StatusGatewayTimeout
	}
	return writeError(c, code, pe.Kind, pe.Err.Error())
}

// handleError answers errors no handler turned into a response: fiber's own
// (404, 413 from the body limit) and unexpected ones.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := "internal_error"
	detail := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		detail = fe.Message
		switch code {
		case fiber.StatusRequestEntityTooLarge:
			kind = "payload_too_large"
		case fiber.StatusNotFound:
			kind = "not_found"
		case fiber.StatusMethodNotAllowed:
			kind = "method_not_allowed"
		default:
			kind = "http_error"
		}
	}
	return writeError(c, code, pipeline.Kind(kind), detail)
}

func writeError(c *fiber.Ctx, code int, kind pipeline.Kind, detail string) error {
	return c.Status(code).JSON(errorBody{
		Status: "error",
		Error:  string(kind),
		Detail: detail,
	})
}
