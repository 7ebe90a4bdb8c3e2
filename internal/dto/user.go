package dto

import (
	"time"

	dom "userapi/internal/domain"
)

// CreateUserRequest is the JSON body for POST /usuarios.
type CreateUserRequest struct {
	Username           string `json:"username" binding:"required,min=1,max=50"`
	Email              string `json:"email" binding:"required,email,max=100"`
	Password           string `json:"password" binding:"required,min=6"`
	ProfilePicture     string `json:"profile_picture" binding:"omitempty,max=1000"`
	ProfileDescription string `json:"profile_description" binding:"omitempty,max=1000"`
}

// UpdateUserRequest is the JSON body for PUT /usuarios/:id.
// nil = не менять, значение = поставить.
type UpdateUserRequest struct {
	Username           *string `json:"username" binding:"omitempty,min=1,max=50"`
	Email              *string `json:"email" binding:"omitempty,email,max=100"`
	Password           *string `json:"password" binding:"omitempty,min=6"`
	ProfilePicture     *string `json:"profile_picture" binding:"omitempty,max=1000"`
	ProfileDescription *string `json:"profile_description" binding:"omitempty,max=1000"`
}

// UserResponse is the public shape of a user account.
// The password hash is deliberately absent.
type UserResponse struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	ProfilePicture     string    `json:"profile_picture"`
	ProfileDescription string    `json:"profile_description"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ListUsersResponse struct {
	Items []UserResponse `json:"items"`
}

// UserToResponse maps a domain user to its public shape.
func UserToResponse(u dom.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		ProfilePicture:     u.ProfilePicture,
		ProfileDescription: u.ProfileDescription,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// UsersToResponses maps a page of users.
func UsersToResponses(list []dom.User) []UserResponse {
	out := make([]UserResponse, len(list))
	for i := range list {
		out[i] = UserToResponse(list[i])
	}
	return out
}
