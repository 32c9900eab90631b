package domain

import "time"

type LeadKind string

const (
	LeadKindContact   LeadKind = "contact"
	LeadKindWholesale LeadKind = "wholesale"
)

type Lead struct {
	ID             string    `bson:"_id" json:"id"`
	Kind           LeadKind  `bson:"kind" json:"kind"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email" json:"email"`
	Phone          string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Subject        string    `bson:"subject,omitempty" json:"subject,omitempty"`
	Message        string    `bson:"message" json:"message"`
	BusinessName   string    `bson:"business_name,omitempty" json:"business_name,omitempty"`
	Country        string    `bson:"country,omitempty" json:"country,omitempty"`
	ExpectedVolume string    `bson:"expected_volume,omitempty" json:"expected_volume,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
