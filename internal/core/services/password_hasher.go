package services

import (
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PasswordHasher. A zero cost selects bcrypt.DefaultCost.
func NewBcryptHasher(cost int) portssvc.PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	return utils.HashPassword(password, h.cost)
}

func (h *bcryptHasher) Verify(password, hash string) bool {
	return utils.CheckPasswordHash(password, hash)
}
