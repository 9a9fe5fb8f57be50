package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/livetv/livetv/app/player"
	"github.com/livetv/livetv/models"
)

// ChannelForm is the edit buffer of the channel editor.
type ChannelForm struct {
	Name       string `validate:"required"`
	LogoURL    string `validate:"omitempty,url"`
	EmbedURL   string `validate:"required,embed"`
	CategoryID string `validate:"required"`
}

// CategoryForm is the edit buffer of the category editor.
type CategoryForm struct {
	Name string `validate:"required"`
}

func ChannelFormFrom(ch models.Channel) ChannelForm {
	return ChannelForm{
		Name:       ch.Name,
		LogoURL:    ch.LogoURL,
		EmbedURL:   ch.EmbedURL,
		CategoryID: ch.CategoryID,
	}
}

func CategoryFormFrom(c models.Category) CategoryForm {
	return CategoryForm{Name: c.Name}
}

func (f ChannelForm) Channel() *models.Channel {
	return &models.Channel{
		Name:       f.Name,
		LogoURL:    f.LogoURL,
		EmbedURL:   f.EmbedURL,
		CategoryID: f.CategoryID,
	}
}

func (f CategoryForm) Category() *models.Category {
	return &models.Category{Name: f.Name}
}

func bindChannelForm(r *http.Request) ChannelForm {
	return ChannelForm{
		Name:       strings.TrimSpace(r.PostFormValue("name")),
		LogoURL:    strings.TrimSpace(r.PostFormValue("logo_url")),
		EmbedURL:   strings.TrimSpace(r.PostFormValue("embed_url")),
		CategoryID: strings.TrimSpace(r.PostFormValue("category_id")),
	}
}

func bindCategoryForm(r *http.Request) CategoryForm {
	return CategoryForm{
		Name: strings.TrimSpace(r.PostFormValue("name")),
	}
}

// ValidationError is a recoverable form problem; the store is not called.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FormValidator validates editor buffers with go-playground/validator.
// The "embed" tag applies the player policy to embed links.
type FormValidator struct {
	v      *validator.Validate
	policy player.Policy
}

func NewFormValidator(policy player.Policy) *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("embed", func(fl validator.FieldLevel) bool {
		return policy.Allowed(fl.Field().String())
	})
	return &FormValidator{v: v, policy: policy}
}

func (f *FormValidator) Channel(form ChannelForm) error {
	errs := f.fieldErrors(form)
	if errs == nil {
		return nil
	}
	for _, fe := range errs {
		if fe.Tag() == "required" {
			return &ValidationError{Message: "Please fill in all required fields"}
		}
	}
	for _, fe := range errs {
		switch fe.Field() {
		case "EmbedURL":
			return &ValidationError{Message: "Embed link rejected: " + f.policy.Validate(form.EmbedURL).Error()}
		case "LogoURL":
			return &ValidationError{Message: "Logo URL must be a valid URL"}
		}
	}
	return &ValidationError{Message: "Channel form is invalid"}
}

func (f *FormValidator) Category(form CategoryForm) error {
	if f.fieldErrors(form) != nil {
		return &ValidationError{Message: "Please enter a category name"}
	}
	return nil
}

func (f *FormValidator) fieldErrors(form any) validator.ValidationErrors {
	err := f.v.Struct(form)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return errs
	}
	return validator.ValidationErrors{}
}
