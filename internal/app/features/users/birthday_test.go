package users

import (
	"testing"
	"time"

	"github.com/dalemusser/staffdir/internal/app/system/userval"
	"github.com/dalemusser/staffdir/internal/domain/models"
)

func TestParseBirthday(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"1990-01-01", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"1990-01-01T00:00:00Z", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"01/02/1990", time.Time{}, true},
		{"1990-13-01", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, fe := parseBirthday(tt.in)
			if (fe != nil) != tt.wantErr {
				t.Fatalf("parseBirthday(%q) error = %v, wantErr %v", tt.in, fe, tt.wantErr)
			}
			if fe != nil && (fe.Field != userval.FieldBirthdayAt || fe.Kind != userval.InvalidFormat) {
				t.Errorf("unexpected field error %+v", fe)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseBirthday(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithBirthdayError(t *testing.T) {
	fe := userval.FieldError{Field: userval.FieldBirthdayAt, Kind: userval.InvalidFormat, Message: "bad"}
	u := models.User{
		Identity:     models.Identity{FirstName: "Jo", LastName: "Doe"},
		Email:        "nope",
		Password:     "short",
		UserCategory: models.UserCategory{MainCategory: "nurse", DetailCategory: "practicing"},
	}

	tests := []struct {
		name         string
		withPassword bool
		want         int
	}{
		{"create", true, 3},
		{"update", false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := withBirthdayError(u, fe, tt.withPassword)
			if len(errs) != tt.want {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.want, errs)
			}
			if errs.Has(userval.FieldBirthdayAt, userval.MissingRequiredField) {
				t.Error("unparsed birthday reported as missing")
			}
			if !errs.Has(userval.FieldBirthdayAt, userval.InvalidFormat) || !errs.Has(userval.FieldEmail, userval.InvalidFormat) {
				t.Errorf("missing expected errors: %v", errs)
			}
			if errs.Has(userval.FieldPassword, userval.OutOfRange) != tt.withPassword {
				t.Errorf("password error present = %v, want %v", !tt.withPassword, tt.withPassword)
			}
		})
	}
}
