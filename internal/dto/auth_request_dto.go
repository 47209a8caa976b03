package dto

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,password"`
	DisplayName string `json:"displayName" binding:"max=100"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ExternalLoginRequest is the body of POST /auth/external-login.
type ExternalLoginRequest struct {
	Provider string `json:"provider" binding:"required"`
	IDToken  string `json:"idToken" binding:"required"`
}

// RefreshTokenRequest is the body of POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// EmailRequest is the body of POST /auth/forgot-password and /auth/resend-verification.
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,password"`
}

// VerifyEmailParams binds the query of GET /auth/verify-email.
type VerifyEmailParams struct {
	Token string `form:"token" binding:"required"`
}
