package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"bookcatalog/pkg/models"
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bookReq is the body of create and update calls. Title and author must be
// present before the store is touched.
type bookReq struct {
	Title       string   `json:"title" binding:"notblank,max=200"`
	Author      string   `json:"author" binding:"notblank,max=200"`
	Genre       string   `json:"genre" binding:"max=100"`
	Year        *int     `json:"year" binding:"omitempty,min=1000,max=9999"`
	ISBN        string   `json:"isbn" binding:"max=20"`
	Description string   `json:"description" binding:"max=5000"`
	CoverURL    string   `json:"cover_url" binding:"max=2048"`
	Rating      *float64 `json:"rating" binding:"omitempty,min=0,max=5"`
	Pages       *int     `json:"pages" binding:"omitempty,min=1"`
	Language    string   `json:"language" binding:"max=50"`
}

func (r bookReq) fields() models.BookFields {
	return models.BookFields{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       r.Genre,
		Year:        r.Year,
		ISBN:        r.ISBN,
		Description: r.Description,
		CoverURL:    r.CoverURL,
		Rating:      r.Rating,
		Pages:       r.Pages,
		Language:    r.Language,
	}.Normalize()
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fieldErrors turns binding errors into user-facing messages. ok is false
// when err is not a validation failure (malformed JSON, wrong types).
func fieldErrors(err error) ([]FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required", "notblank":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "min":
			msg = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		default:
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out, true
}
