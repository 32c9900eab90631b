package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	Settings     Settings  `bson:"settings" json:"settings"`
	Wishlist     []string  `bson:"wishlist" json:"wishlist"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

type Settings struct {
	Newsletter   bool   `bson:"newsletter" json:"newsletter"`
	OrderUpdates bool   `bson:"order_updates" json:"order_updates"`
	Currency     string `bson:"currency" json:"currency"`
}

func DefaultSettings(currency string) Settings {
	return Settings{Newsletter: false, OrderUpdates: true, Currency: currency}
}

type ProfileUpdate struct {
	Name  *string
	Phone *string
}
