package server

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"network/internal/middleware"
	"network/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondError writes err with the status its AppError code maps to. Errors
// outside the taxonomy are reported as internal errors.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	if appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request error", "error", err, "path", c.Path())
	}
	return models.RespondWithError(c, appErr.Status(), appErr)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parseBody decodes a JSON body into dest. A malformed body is answered with
// 400 "Invalid JSON in request body".
func parseBody(c *fiber.Ctx, dest any) error {
	if err := json.Unmarshal(c.Body(), dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid JSON in request body"))
		return errResponseWritten
	}
	return nil
}

// requireContent dereferences a required content field.
func requireContent(c *fiber.Ctx, content *string) (string, error) {
	if content == nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing required field: content"))
		return "", errResponseWritten
	}
	return *content, nil
}

// requireAction parses the body's action and accepts only the allowed ones.
func requireAction(c *fiber.Ctx, req models.ActionRequest, allowed ...models.PostAction) (models.PostAction, error) {
	if req.Action == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing required field: action"))
		return "", errResponseWritten
	}
	action, err := models.ParsePostAction(req.Action)
	if err == nil {
		for _, a := range allowed {
			if a == action {
				return action, nil
			}
		}
		err = models.NewValidationError("Invalid action: " + req.Action)
	}
	_ = respondError(c, err)
	return "", errResponseWritten
}

// viewerID returns the authenticated caller or 0.
func viewerID(c *fiber.Ctx) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}
