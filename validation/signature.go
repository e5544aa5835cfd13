package validation

import (
	"strings"

	"petitionhub-backend/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SignatureInput is a visitor's request to sign a petition
type SignatureInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Comment  string `json:"comment"`
}

// ValidateSignature checks a signature submission. On success it returns the
// accepted signature; the caller assigns the petition, ID and timestamp and is
// responsible for persisting it and bumping the petition's counter.
func ValidateSignature(in SignatureInput) (*models.Signature, error) {
	var errs Errors

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs.add("name", Required, "Full name is required.")
	}

	email, emailErr := validateEmail(in.Email)
	if emailErr != nil {
		errs = append(errs, emailErr)
	}

	if err := errs.err(); err != nil {
		return nil, err
	}

	return &models.Signature{
		Name:     name,
		Email:    email,
		Location: optional(in.Location),
		Comment:  optional(in.Comment),
	}, nil
}

func validateEmail(raw string) (string, *FieldError) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", &FieldError{Field: "email", Kind: Required, Message: "Email address is required."}
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", &FieldError{Field: "email", Kind: InvalidFormat, Message: "Please enter a valid email address."}
	}
	return email, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
