package dto

import "github.com/vendora/vendora/internal/validator"

// ActivateRegistrationRequest redeems a set-password link sent after a pre-signup purchase
type ActivateRegistrationRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r *ActivateRegistrationRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ActivateRegistrationResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	PlanName    string `json:"plan_name"`
	AccessToken string `json:"access_token"`
}

type DeleteAccountResponse struct {
	Deleted bool `json:"deleted"`
}
