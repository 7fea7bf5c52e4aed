package response

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/sangkips/vendas-api/pkg/pagination"
)

// MessageResponse is the body of responses that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// SaleEditedResponse is the body returned after a sale edit
type SaleEditedResponse struct {
	Message string      `json:"message"`
	Sale    interface{} `json:"sale"`
}

// OK sends a 200 OK response with data as the body
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 Created response with data as the body
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message sends a {"message": ...} body
func Message(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, MessageResponse{Message: message})
}

// List sends the items as a bare JSON array and the pagination metadata as
// headers.
func List[T any](c *gin.Context, result *pagination.PaginatedResult[T]) {
	if result.Pagination != nil {
		for k, v := range result.Pagination.Headers() {
			c.Header(k, v)
		}
	}
	c.JSON(http.StatusOK, result.Items)
}

// Error sends an {"error": ..., "code": ...} body with the status of the
// application error. Server-side failures are logged with their cause.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		log.Printf("[%s] %s %s failed: %v", requestID(c), c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
	}
	c.JSON(appErr.Status, appErr)
}

// BindError reports a request that could not be bound. Validator failures
// are listed per field; malformed bodies get a plain bad request.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fieldErrors := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   lowerFirst(fe.Field()),
				Message: validationMessage(fe),
			})
		}
		Error(c, apperror.NewValidationError(fieldErrors))
		return
	}
	Error(c, apperror.NewBadRequestError("Invalid request body"))
}

func validationMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func requestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}
