// Package adminrequests contains request bindings for admin endpoints.
package adminrequests

// CreateUserRequest creates an account on a user's behalf. Role defaults to
// USER when omitted.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=USER ADMIN"`
}
