package users

import "time"

// User is the identity-provider-linked profile row.
type User struct {
	ID                 string    `json:"id"`
	ExternalID         string    `json:"externalId"`
	Email              string    `json:"email"`
	FullName           string    `json:"fullName"`
	Plan               string    `json:"plan"`
	DocumentsProcessed int       `json:"documentsProcessed"`
	MonthlyLimit       int       `json:"monthlyLimit"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// DefaultMonthlyLimit is applied to users provisioned on the free plan.
const DefaultMonthlyLimit = 20
