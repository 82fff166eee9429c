package auth

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Username        string `json:"username" example:"alice"`
	Password        string `json:"password" example:"Secr3t!"`
	ConfirmPassword string `json:"confirmPassword" example:"Secr3t!"`
}

// RegisterResponse is returned with 201 Created. It never carries the password hash.
type RegisterResponse struct {
	UserID   int64  `json:"userId" example:"1"`
	Username string `json:"username" example:"alice"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"Secr3t!"`
}

// LoginResponse carries the signed bearer token.
type LoginResponse struct {
	Token    string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Username string `json:"username" example:"alice"`
}
