package dto

// Identity is the caller as asserted by the upstream authenticator.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// UserResponse is the DTO for returning the current user.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
