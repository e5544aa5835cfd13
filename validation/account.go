package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const PasswordMinLength = 6

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	phoneSeparator = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// SignUpInput mirrors the sign-up form
type SignUpInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

// SignInInput mirrors the sign-in form
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateSignUp checks the sign-up form and normalises it in place:
// names and email are trimmed and the phone number loses separators.
func ValidateSignUp(in *SignUpInput) error {
	var errs Errors

	in.FirstName = strings.TrimSpace(in.FirstName)
	if in.FirstName == "" {
		errs.add("first_name", Required, "First name is required.")
	}
	in.LastName = strings.TrimSpace(in.LastName)
	if in.LastName == "" {
		errs.add("last_name", Required, "Last name is required.")
	}

	email, emailErr := validateEmail(in.Email)
	if emailErr != nil {
		errs = append(errs, emailErr)
	}
	in.Email = email

	if pwErr := validatePassword(in.Password); pwErr != nil {
		errs = append(errs, pwErr)
	}

	in.Phone = phoneSeparator.Replace(strings.TrimSpace(in.Phone))
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		errs.add("phone", InvalidFormat, "Phone number is not valid.")
	}

	return errs.err()
}

// ValidateSignIn checks the sign-in form and trims the email in place.
func ValidateSignIn(in *SignInInput) error {
	var errs Errors

	email, emailErr := validateEmail(in.Email)
	if emailErr != nil {
		errs = append(errs, emailErr)
	}
	in.Email = email

	if pwErr := validatePassword(in.Password); pwErr != nil {
		errs = append(errs, pwErr)
	}

	return errs.err()
}

func validatePassword(pw string) *FieldError {
	if pw == "" {
		return &FieldError{Field: "password", Kind: Required, Message: "Password is required."}
	}
	if utf8.RuneCountInString(pw) < PasswordMinLength {
		return &FieldError{Field: "password", Kind: TooShort, Message: "Password must be at least 6 characters."}
	}
	return nil
}
