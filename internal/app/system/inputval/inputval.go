// Package inputval decodes JSON request bodies and validates them with
// struct tags, producing field-level messages for the error envelope.
//
// Custom tags:
//
//	mobile10       exactly ten digits
//	countrycode    "+" followed by 1-4 digits
//	strongpassword at least one lowercase letter, one uppercase letter and one digit
//	bcrypt72       at most 72 bytes once UTF-8 encoded
//	otp6           exactly six digits
//	objectid       24-char hex Mongo ObjectID
package inputval

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	mobileRe      = regexp.MustCompile(`^[0-9]{10}$`)
	countryCodeRe = regexp.MustCompile(`^\+[0-9]{1,4}$`)
	otpRe         = regexp.MustCompile(`^[0-9]{6}$`)
)

// Validator wraps a configured validator and its English translator.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

var custom = []struct {
	tag string
	fn  validator.Func
	msg string
}{
	{"mobile10", matches(mobileRe), "{0} must be a 10-digit mobile number"},
	{"countrycode", matches(countryCodeRe), "{0} must be a country code such as +91"},
	{"otp6", matches(otpRe), "{0} must be a 6-digit code"},
	{"strongpassword", strongPassword, "{0} must contain at least one uppercase letter, one lowercase letter and one number"},
	{"bcrypt72", func(fl validator.FieldLevel) bool { return len(fl.Field().String()) <= MaxPasswordBytes }, "{0} must be at most 72 bytes"},
	{"objectid", func(fl validator.FieldLevel) bool { return primitive.IsValidObjectID(fl.Field().String()) }, "{0} must be a valid id"},
}

// New builds a Validator with the custom tags and English messages registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic("inputval: register translations: " + err.Error())
	}

	for _, c := range custom {
		if err := v.RegisterValidation(c.tag, c.fn); err != nil {
			panic("inputval: register " + c.tag + ": " + err.Error())
		}
		msg := c.msg
		tag := c.tag
		err := v.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, msg, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				s, _ := ut.T(tag, fe.Field())
				return s
			})
		if err != nil {
			panic("inputval: translate " + tag + ": " + err.Error())
		}
	}
	return &Validator{v: v, trans: trans}
}

var std = New()

// Struct validates s and returns an *apierr.Error listing every invalid field.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierr.Validation("Validation failed")
	}
	fields := make([]apierr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierr.FieldError{Field: fe.Field(), Message: fe.Translate(val.trans)})
	}
	return apierr.Validation("Validation failed", fields...)
}

// Decode reads a JSON body into dst and validates it. An empty body decodes
// as {} so missing required fields are reported individually.
func (val *Validator) Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apierr.Validation("Invalid JSON body")
	}
	return val.Struct(dst)
}

// Struct validates s with the shared Validator.
func Struct(s any) error { return std.Struct(s) }

// Decode decodes and validates with the shared Validator.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error { return std.Decode(w, r, dst) }

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool { return re.MatchString(fl.Field().String()) }
}

func strongPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
