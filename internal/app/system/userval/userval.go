// Package userval validates user records before they are written.
//
// Constraints are declared once, as a table of field rules, and evaluated by
// a single pass that reports every violation it finds. A field that is
// missing only ever yields MissingRequiredField; its format and range rules
// are not evaluated.
package userval

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/staffdir/internal/app/system/normalize"
	"github.com/dalemusser/staffdir/internal/domain/models"
)

// Field paths, as stored in MongoDB.
const (
	FieldFirstName      = "identity.first_name"
	FieldLastName       = "identity.last_name"
	FieldBirthdayAt     = "identity.birthday_at"
	FieldEmail          = "email"
	FieldPassword       = "password"
	FieldMainCategory   = "user_category.main_category"
	FieldDetailCategory = "user_category.detail_category"
	FieldPhone          = "phone"
)

const (
	MinNameLength     = 2
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

var (
	// EmailPattern is intentionally loose: something, an @, and a dot in
	// the domain part. It is not anchored.
	EmailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

	// PhonePattern accepts French landline and mobile numbers, with an
	// optional +33 / 0033 prefix and space, dot or dash separators.
	PhonePattern = regexp.MustCompile(`^(?:(?:\+|00)33|0)\s*[1-9](?:[\s.-]*\d{2}){4}$`)
)

// IsValidEmail reports whether s matches EmailPattern.
func IsValidEmail(s string) bool { return EmailPattern.MatchString(s) }

// IsValidPhone reports whether s is a French phone number.
func IsValidPhone(s string) bool { return PhonePattern.MatchString(s) }

type stringRule struct {
	path     string
	value    func(u *models.User) string
	required bool
	minLen   int
	maxBytes int
	pattern  *regexp.Regexp
	what     string // noun used in the format message
	oneOf    []string
	password bool
}

type dateRule struct {
	path        string
	value       func(u *models.User) time.Time
	required    bool
	notAfterNow bool
}

var stringRules = []stringRule{
	{
		path:     FieldFirstName,
		value:    func(u *models.User) string { return u.Identity.FirstName },
		required: true,
		minLen:   MinNameLength,
	},
	{
		path:     FieldLastName,
		value:    func(u *models.User) string { return u.Identity.LastName },
		required: true,
		minLen:   MinNameLength,
	},
	{
		path:     FieldEmail,
		value:    func(u *models.User) string { return u.Email },
		required: true,
		pattern:  EmailPattern,
		what:     "email address",
	},
	{
		path:     FieldPassword,
		value:    func(u *models.User) string { return u.Password },
		required: true,
		minLen:   MinPasswordLength,
		maxBytes: MaxPasswordBytes,
		password: true,
	},
	{
		path:     FieldMainCategory,
		value:    func(u *models.User) string { return u.UserCategory.MainCategory },
		required: true,
		oneOf:    models.MainCategories,
	},
	{
		path:     FieldDetailCategory,
		value:    func(u *models.User) string { return u.UserCategory.DetailCategory },
		required: true,
		oneOf:    models.DetailCategories,
	},
	{
		path:    FieldPhone,
		value:   func(u *models.User) string { return u.Phone },
		pattern: PhonePattern,
		what:    "French phone number",
	},
}

var dateRules = []dateRule{
	{
		path:        FieldBirthdayAt,
		value:       func(u *models.User) time.Time { return u.Identity.BirthdayAt },
		required:    true,
		notAfterNow: true,
	},
}

// Validator checks candidate users against the directory's field rules.
type Validator struct {
	now func() time.Time
}

// New returns a Validator reading the current time from now.
// A nil now uses time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate normalizes u and checks every rule. On success it returns the
// normalized record and a nil error; otherwise the error is an Errors batch.
func (v *Validator) Validate(u models.User) (models.User, error) {
	return v.check(u, true)
}

// ValidateProfile is Validate without the password rule. It is used for
// updates, which never carry the password.
func (v *Validator) ValidateProfile(u models.User) (models.User, error) {
	return v.check(u, false)
}

func (v *Validator) check(u models.User, withPassword bool) (models.User, error) {
	u = Normalize(u)
	now := v.now()

	var errs Errors
	for _, r := range stringRules {
		if r.password && !withPassword {
			continue
		}
		if fe, bad := r.check(r.value(&u)); bad {
			errs = append(errs, fe)
		}
	}
	for _, r := range dateRules {
		if fe, bad := r.check(r.value(&u), now); bad {
			errs = append(errs, fe)
		}
	}

	if len(errs) > 0 {
		return models.User{}, errs
	}
	return u, nil
}

func (r stringRule) check(s string) (FieldError, bool) {
	if s == "" {
		if r.required {
			return FieldError{Field: r.path, Kind: MissingRequiredField, Message: r.path + " is required"}, true
		}
		return FieldError{}, false
	}
	if r.minLen > 0 && utf8.RuneCountInString(s) < r.minLen {
		return FieldError{
			Field:   r.path,
			Kind:    OutOfRange,
			Message: fmt.Sprintf("%s must be at least %d characters", r.path, r.minLen),
		}, true
	}
	if r.maxBytes > 0 && len(s) > r.maxBytes {
		return FieldError{
			Field:   r.path,
			Kind:    OutOfRange,
			Message: fmt.Sprintf("%s must be at most %d bytes", r.path, r.maxBytes),
		}, true
	}
	if r.pattern != nil && !r.pattern.MatchString(s) {
		return FieldError{
			Field:   r.path,
			Kind:    InvalidFormat,
			Message: fmt.Sprintf("%s is not a valid %s", r.path, r.what),
		}, true
	}
	if len(r.oneOf) > 0 && !slices.Contains(r.oneOf, s) {
		return FieldError{
			Field:   r.path,
			Kind:    InvalidFormat,
			Message: fmt.Sprintf("%s must be one of %s", r.path, strings.Join(r.oneOf, ", ")),
		}, true
	}
	return FieldError{}, false
}

func (r dateRule) check(t, now time.Time) (FieldError, bool) {
	if t.IsZero() {
		if r.required {
			return FieldError{Field: r.path, Kind: MissingRequiredField, Message: r.path + " is required"}, true
		}
		return FieldError{}, false
	}
	if r.notAfterNow && t.After(now) {
		return FieldError{Field: r.path, Kind: OutOfRange, Message: r.path + " cannot be in the future"}, true
	}
	return FieldError{}, false
}

// Normalize trims and canonicalizes the user's fields. Department and
// address lines are free text: they are trimmed and NFC-composed, nothing
// more. Enum values are left untouched since they are matched exactly.
// An address with no content is dropped.
func Normalize(u models.User) models.User {
	u.Identity.FirstName = normalize.Name(u.Identity.FirstName)
	u.Identity.LastName = normalize.Name(u.Identity.LastName)
	u.Email = normalize.Email(u.Email)
	u.Phone = normalize.Phone(u.Phone)
	u.Department = freeText(u.Department)

	if u.Address != nil {
		a := models.Address{
			FirstAddressField:  freeText(u.Address.FirstAddressField),
			SecondAddressField: freeText(u.Address.SecondAddressField),
			ThirdAddressField:  freeText(u.Address.ThirdAddressField),
			City:               freeText(u.Address.City),
			ZipCode:            freeText(u.Address.ZipCode),
			Country:            freeText(u.Address.Country),
		}
		if a == (models.Address{}) {
			u.Address = nil
		} else {
			u.Address = &a
		}
	}
	return u
}

func freeText(s string) string {
	return normalize.Text(s)
}
