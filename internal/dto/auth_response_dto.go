package dto

import (
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
)

// TokenPairResponse is returned by every endpoint that opens or extends a session.
type TokenPairResponse struct {
	AccessToken          string    `json:"accessToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	RefreshToken         string    `json:"refreshToken"`
	TokenType            string    `json:"tokenType"`
}

// ToTokenPairResponse converts a domain.TokenPair to its response DTO.
func ToTokenPairResponse(pair *domain.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:          pair.AccessToken,
		AccessTokenExpiresAt: pair.AccessTokenExpiresAt,
		RefreshToken:         pair.RefreshToken,
		TokenType:            "Bearer",
	}
}

// MessageResponse carries a user-facing message with no other data.
type MessageResponse struct {
	Message string `json:"message"`
}
