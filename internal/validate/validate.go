// Package validate rejects malformed input before it reaches the store.
// All checks are pure; failures come back as a list of field errors and
// never as a panic or a passed-through library error.
package validate

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ganttboard/internal/models"
)

// FieldError is one (field path, message) pair from a failed validation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const dateLayout = "2006-01-02"

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()

	// Report json field names, not Go struct names
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	val.RegisterValidation("dateformat", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, fl.Field().String())
		return err == nil
	})

	val.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColorRe.MatchString(fl.Field().String())
	})

	val.RegisterStructValidation(projectDates, models.ProjectInput{})
	val.RegisterStructValidation(taskDates, models.TaskInput{})
	val.RegisterStructValidation(taskPatchDates, models.TaskPatch{})

	return val
}

// projectDates rejects end_date earlier than start_date
func projectDates(sl validator.StructLevel) {
	in := sl.Current().Interface().(models.ProjectInput)
	if endBeforeStart(in.StartDate, in.EndDate) {
		sl.ReportError(in.EndDate, "end_date", "EndDate", "enddate", "")
	}
}

func taskDates(sl validator.StructLevel) {
	in := sl.Current().Interface().(models.TaskInput)
	if endBeforeStart(in.StartDate, in.EndDate) {
		sl.ReportError(in.EndDate, "end_date", "EndDate", "enddate", "")
	}
}

func taskPatchDates(sl validator.StructLevel) {
	in := sl.Current().Interface().(models.TaskPatch)
	if in.StartDate != nil && in.EndDate != nil && endBeforeStart(*in.StartDate, *in.EndDate) {
		sl.ReportError(*in.EndDate, "end_date", "EndDate", "enddate", "")
	}
}

func endBeforeStart(start, end string) bool {
	s, errS := time.Parse(dateLayout, start)
	e, errE := time.Parse(dateLayout, end)
	if errS != nil || errE != nil {
		// Unparseable dates are reported by the dateformat rule
		return false
	}
	return e.Before(s)
}

// Struct validates any input struct and returns its field errors, or
// nil when the input is valid.
func Struct(input interface{}) []FieldError {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: "invalid input"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// RegisterInput is the request body for account registration
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2,max=50"`
	OrgName  string `json:"org_name" validate:"required,min=2,max=50"`
}

// LoginInput is the request body for login. The password is only
// checked for presence here; verification happens against the hash.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "dateformat":
		return "must be a date in YYYY-MM-DD format"
	case "hexcolor6":
		return "must be a hex color like #4F46E5"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid4":
		return "must be a valid id"
	case "enddate":
		return "end date must not be before start date"
	}
	return "is invalid"
}
