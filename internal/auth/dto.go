package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterDTO carries self-registration input. Empty email/phone are stored as NULL.
type RegisterDTO struct {
	Username string  `json:"username" validate:"required,max=50"`
	Password string  `json:"password" validate:"required,max=72"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
}

// Normalize turns empty optional strings into nil.
func (d *RegisterDTO) Normalize() {
	if d.Email != nil && *d.Email == "" {
		d.Email = nil
	}
	if d.Phone != nil && *d.Phone == "" {
		d.Phone = nil
	}
}

type UserSummary struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
}

type LoginResult struct {
	Token string
	User  UserSummary
}

type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}
