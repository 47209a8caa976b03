package dto

import (
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
)

// AccountResponse is the public view of an account.
type AccountResponse struct {
	AccountID       string    `json:"accountID"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"displayName"`
	AvatarURL       *string   `json:"avatarURL,omitempty"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	HasPassword     bool      `json:"hasPassword"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       account.AccountID,
		Email:           account.Email,
		DisplayName:     account.DisplayName,
		AvatarURL:       account.AvatarURL,
		Role:            string(account.Role),
		IsEmailVerified: account.IsEmailVerified,
		HasPassword:     account.HasPassword(),
		CreatedAt:       account.CreatedAt,
	}
}
