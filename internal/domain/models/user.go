// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member of the healthcare-staff directory.
//
// NOTE:
//   - Password holds the bcrypt hash once the record is persisted. The store
//     never returns it from default reads; see GetCredentialsByEmail.
//   - RefreshToken is absent until a session is issued and is likewise
//     excluded from default reads.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Identity     Identity           `bson:"identity" json:"identity"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password,omitempty" json:"-"`
	UserCategory UserCategory       `bson:"user_category" json:"user_category"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Department   string             `bson:"department,omitempty" json:"department,omitempty"`
	Address      *Address           `bson:"address,omitempty" json:"address,omitempty"`
	RefreshToken *string            `bson:"refresh_token,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Identity is the civil identity of a user.
type Identity struct {
	FirstName  string    `bson:"first_name" json:"first_name"`
	LastName   string    `bson:"last_name" json:"last_name"`
	BirthdayAt time.Time `bson:"birthday_at" json:"birthday_at"`
}

// UserCategory classifies a user professionally (MainCategory) and by
// training status (DetailCategory).
type UserCategory struct {
	MainCategory   string `bson:"main_category" json:"main_category"`
	DetailCategory string `bson:"detail_category" json:"detail_category"`
}

// Address is an optional postal address. None of its fields are validated.
type Address struct {
	FirstAddressField  string `bson:"first_address_field,omitempty" json:"first_address_field,omitempty"`
	SecondAddressField string `bson:"second_address_field,omitempty" json:"second_address_field,omitempty"`
	ThirdAddressField  string `bson:"third_address_field,omitempty" json:"third_address_field,omitempty"`
	City               string `bson:"city,omitempty" json:"city,omitempty"`
	ZipCode            string `bson:"zip_code,omitempty" json:"zip_code,omitempty"`
	Country            string `bson:"country,omitempty" json:"country,omitempty"`
}
