package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts failures into a
// 400 fiber error listing the offending fields.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, ve := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", ve.Field(), ve.Tag()))
		}
		return fiber.NewError(fiber.StatusBadRequest, "validation failed: "+strings.Join(fields, ", "))
	}
	return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
}
