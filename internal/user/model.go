package user

type RegisterRequest struct {
	Username string `json:"username" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Profile mirrors the billing view of the caller.
type Profile struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Balance  float64  `json:"balance"`
}
