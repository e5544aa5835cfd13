package validation

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"petitionhub-backend/models"
)

const (
	TitleMinLength       = 10
	TitleMaxLength       = 150
	DescriptionMinLength = 50
	MinTarget            = 1
)

// earliestDeadline rejects obviously bogus dates regardless of the clock
var earliestDeadline = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// deadlineLayouts are tried in order when parsing the submitted deadline
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	time.DateOnly,
}

// CoercedInt accepts a JSON number or a numeric string, like an HTML number
// input does.
type CoercedInt struct {
	raw string
}

// IntValue builds a CoercedInt from an integer
func IntValue(n int64) CoercedInt {
	return CoercedInt{raw: strconv.FormatInt(n, 10)}
}

// StringValue builds a CoercedInt from unparsed form input
func StringValue(s string) CoercedInt {
	return CoercedInt{raw: s}
}

// UnmarshalJSON keeps the raw literal; coercion happens during validation.
func (c *CoercedInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		c.raw = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	c.raw = s
	return nil
}

// Int coerces the value. Empty input coerces to zero; the fractional part of
// a decimal is truncated. ok is false for anything non-numeric.
func (c CoercedInt) Int() (n int64, ok bool) {
	s := strings.TrimSpace(c.raw)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// PetitionInput is a candidate petition as submitted by the create form.
// Attachments are uploaded separately once the petition exists.
type PetitionInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Target      CoercedInt `json:"target"`
	Category    string     `json:"category"`
	Deadline    string     `json:"deadline"`
	Visibility  string     `json:"visibility"`
}

// ValidatePetition checks a petition submission against now and returns a
// draft ready to persist. The draft has no ID, creator or timestamps yet.
// On failure the returned error is an Errors value holding every problem.
func ValidatePetition(in PetitionInput, now time.Time) (*models.Petition, error) {
	var errs Errors

	switch n := utf8.RuneCountInString(in.Title); {
	case n < TitleMinLength:
		errs.add("title", TooShort, "Title must be at least 10 characters.")
	case n > TitleMaxLength:
		errs.add("title", TooLong, "Title must be 150 characters or less.")
	}

	if utf8.RuneCountInString(in.Description) < DescriptionMinLength {
		errs.add("description", TooShort, "Description must be at least 50 characters.")
	}

	target, ok := in.Target.Int()
	switch {
	case !ok:
		errs.add("target", InvalidFormat, "Target must be a number.")
	case target < MinTarget:
		errs.add("target", BelowMinimum, "Target must be at least 1.")
	}

	category := models.Category(strings.TrimSpace(in.Category))
	if !category.Valid() {
		errs.add("category", Required, "Please select a category.")
	}

	deadline, err := validateDeadline(in.Deadline, now)
	if err != nil {
		errs = append(errs, err)
	}

	visibility := models.Visibility(strings.TrimSpace(in.Visibility))
	if !visibility.Valid() {
		errs.add("visibility", Required, "You need to select a visibility option.")
	}

	if err := errs.err(); err != nil {
		return nil, err
	}

	return &models.Petition{
		Title:       in.Title,
		Description: in.Description,
		Category:    category,
		Target:      target,
		Signatures:  0,
		Deadline:    deadline,
		Visibility:  visibility,
	}, nil
}

func validateDeadline(raw string, now time.Time) (time.Time, *FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &FieldError{Field: "deadline", Kind: Required, Message: "A deadline date is required."}
	}

	deadline, ok := parseDeadline(raw)
	if !ok {
		return time.Time{}, &FieldError{Field: "deadline", Kind: InvalidFormat, Message: "Deadline is not a valid date."}
	}

	if deadline.Before(earliestDeadline) || !deadline.After(now) {
		return time.Time{}, &FieldError{Field: "deadline", Kind: MustBeFuture, Message: "Deadline must be in the future."}
	}
	return deadline, nil
}

func parseDeadline(raw string) (time.Time, bool) {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
