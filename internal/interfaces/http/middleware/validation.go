package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/medcare/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator: JSON field names in errors and
// the custom enum tags and the "all" sentinel tag.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not validator/v10")
	}
	RegisterValidations(v)
	return nil
}

// RegisterValidations installs the custom tags on v.
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("plancode", func(fl validator.FieldLevel) bool {
		_, err := billing.ParsePlanCode(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		_, err := valueobject.ParseCurrency(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("subscribertype", func(fl validator.FieldLevel) bool {
		_, err := billing.ParseSubscriberType(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("substatus", func(fl validator.FieldLevel) bool {
		_, err := billing.ParseSubscriptionStatus(fl.Field().String())
		return err == nil
	})
	// "all" accepts the report filter sentinel in any case, like the enum parsers.
	_ = v.RegisterValidation("all", func(fl validator.FieldLevel) bool {
		return strings.EqualFold(strings.TrimSpace(fl.Field().String()), "ALL")
	})
}

// FormatValidationErrors formats validation errors into a standard response.
// Non-validator errors (malformed JSON) become a single detail-less response.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID)
	}

	details := make([]dto.ValidationDetail, 0, len(ve))
	for _, e := range ve {
		details = append(details, dto.ValidationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 for a binding error.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestIDOf(c)))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "email":
		return "Invalid email format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "datetime":
		return "Must be a date formatted as " + e.Param()
	case "plancode":
		return "Must be one of: FREE STANDARD PREMIUM"
	case "currency":
		return "Must be an ISO 4217 currency code"
	case "subscribertype":
		return "Must be one of: DOCTOR HOSPITAL"
	case "substatus":
		return "Must be a subscription status"
	default:
		return "Invalid value"
	}
}
