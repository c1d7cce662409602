// internal/app/features/users/birthday.go
package users

import (
	"time"

	"github.com/dalemusser/staffdir/internal/app/system/userval"
	"github.com/dalemusser/staffdir/internal/domain/models"
)

// birthdayLayouts are the accepted birthday formats, in the JSON body and
// in the CSV birthday column alike.
var birthdayLayouts = []string{time.RFC3339, time.DateOnly}

// parseBirthday reads s in one of birthdayLayouts. An empty s is the zero
// time, which validation reports as missing.
func parseBirthday(s string) (time.Time, *userval.FieldError) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &userval.FieldError{
		Field:   userval.FieldBirthdayAt,
		Kind:    userval.InvalidFormat,
		Message: userval.FieldBirthdayAt + " must be an RFC 3339 timestamp or a YYYY-MM-DD date",
	}
}

// withBirthdayError validates u, whose birthday could not be parsed, and
// returns every violation it has with fe standing in for the birthday.
// Nothing is written.
func withBirthdayError(u models.User, fe userval.FieldError, withPassword bool) userval.Errors {
	v := userval.New(nil)
	var err error
	if withPassword {
		_, err = v.Validate(u)
	} else {
		_, err = v.ValidateProfile(u)
	}

	verrs, _ := userval.AsErrors(err)
	out := make(userval.Errors, 0, len(verrs)+1)
	for _, e := range verrs {
		if e.Field != userval.FieldBirthdayAt {
			out = append(out, e)
		}
	}
	return append(out, fe)
}
