package models

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries field-level messages. It is recovered locally by
// the caller and rendered as the response to the originating request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns one human-readable message, for single-line replies.
func (e *ValidationError) First() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return e.Fields[keys[0]]
}

var (
	phoneRe     = regexp.MustCompile(`^\+998[0-9]{9}$`)
	birthDateRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("goalcategory", func(fl validator.FieldLevel) bool {
		return IsCategory(fl.Field().String())
	})
	v.RegisterValidation("goalduration", func(fl validator.FieldLevel) bool {
		return Duration(fl.Field().String()).IsValid()
	})
	v.RegisterValidation("uzphone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	v.RegisterValidation("birthdate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !birthDateRe.MatchString(s) {
			return false
		}
		_, err := time.Parse("02.01.2006", s)
		return err == nil
	})
	return v
}

// DescriptionLimits parameterizes the description bounds, which differ
// between the bot wizard and the web form.
type DescriptionLimits struct {
	Min int
	Max int
}

var (
	BotDescriptionLimits = DescriptionLimits{Min: 20, Max: 2000}
	WebDescriptionLimits = DescriptionLimits{Min: 50, Max: 1000}
)

// GoalInput is what a caller supplies to create a goal.
type GoalInput struct {
	Name        string   `json:"name" validate:"required,min=3,max=100"`
	Description string   `json:"description" validate:"required"`
	Duration    Duration `json:"duration" validate:"required,goalduration"`
	Category    string   `json:"category" validate:"required,goalcategory"`
}

// Validate checks the input and returns a *ValidationError listing every
// violated field, or nil.
func (in GoalInput) Validate(limits DescriptionLimits) error {
	fields := map[string]string{}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); !ok {
			return err
		}
		for _, fe := range verrs {
			switch fe.Field() {
			case "Name":
				fields["name"] = "Maqsad nomi 3 tadan 100 tagacha belgidan iborat bo'lishi kerak"
			case "Description":
				fields["description"] = "Tarif kiritilishi kerak"
			case "Duration":
				fields["duration"] = "Noto'g'ri davomiylik"
			case "Category":
				fields["category"] = "Noto'g'ri kategoriya"
			}
		}
	}

	if _, seen := fields["description"]; !seen {
		n := len([]rune(strings.TrimSpace(in.Description)))
		if n < limits.Min {
			fields["description"] = fmt.Sprintf("Tarif kamida %d ta belgidan iborat bo'lishi kerak", limits.Min)
		} else if n > limits.Max {
			fields["description"] = fmt.Sprintf("Tarif %d ta belgidan oshmasligi kerak", limits.Max)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ProfileInput is the self-editable part of a user profile. Empty fields
// are left untouched by the update.
type ProfileInput struct {
	FirstName string `json:"first_name" validate:"omitempty,min=3,max=64"`
	Phone     string `json:"phone" validate:"omitempty,uzphone"`
	BirthDate string `json:"birth_date" validate:"omitempty,birthdate"`
	Location  string `json:"location" validate:"omitempty,max=100"`
	Bio       string `json:"bio" validate:"omitempty,max=200"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female"`
}

func (in ProfileInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); !ok {
		return err
	}
	fields := map[string]string{}
	for _, fe := range verrs {
		switch fe.Field() {
		case "FirstName":
			fields["first_name"] = "Ism kamida 3 ta harfdan iborat bo'lishi kerak"
		case "Phone":
			fields["phone"] = "Telefon raqami noto'g'ri formatda"
		case "BirthDate":
			fields["birth_date"] = "Tug'ilgan sana noto'g'ri formatda"
		case "Location":
			fields["location"] = "Manzil 100 ta belgidan oshmasligi kerak"
		case "Bio":
			fields["bio"] = "Bio 200 ta belgidan oshmasligi kerak"
		case "Gender":
			fields["gender"] = "Jins noto'g'ri tanlangan"
		}
	}
	return &ValidationError{Fields: fields}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
