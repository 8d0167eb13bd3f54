package dto

import (
	"time"

	"github.com/pressroom/pressroom/internal/model"
)

// UpdateUserRequest is the body of PATCH/PUT /api/users/{id}.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user. It never includes the password hash.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// UserListResponse wraps a list of users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserListResponse converts users to UserListResponse.
func ToUserListResponse(users []*model.User) UserListResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = ToUserResponse(u)
	}
	return UserListResponse{Users: out}
}
