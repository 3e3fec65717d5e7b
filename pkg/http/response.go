package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes a 200 response with the given payload.
func DataResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// ListResponse writes a 200 response with paginated payload.
func ListResponse(c echo.Context, items interface{}, total, limit, offset int) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: ListDataResponse{
			Items:  items,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// SuccessResponse writes a 200 response without a payload.
func SuccessResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
	})
}

// BadRequestResponse writes a 400 response.
func BadRequestResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Error:   message,
	})
}

// ValidationErrorResponse writes a 400 response with field errors.
func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	return c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Error:   "validation failed",
		Details: errs,
	})
}

// NotFoundResponse writes a 404 response.
func NotFoundResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, APIResponse{
		Success: false,
		Error:   message,
	})
}

// InternalServerErrorResponse writes a 500 response.
func InternalServerErrorResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, APIResponse{
		Success: false,
		Error:   message,
	})
}

// ErrorResponse maps an error to the right HTTP response. AppError carries
// its own status, anything else becomes a 500.
func ErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, APIResponse{
			Success: false,
			Error:   appErr.Message,
		})
	}
	return InternalServerErrorResponse(c, "internal server error")
}
