// File: internal/user/model.go
package user

import (
	"time"

	"garment_portal_gateway/internal/common"
)

// User is a row in the local user directory.
type User struct {
	common.BaseModel
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string    `gorm:"type:varchar(255)"` // nil for accounts that only sign in through Firebase
	DisplayName  string     `gorm:"type:varchar(150)"`
	PhotoURL     *string    `gorm:"type:text"`
	FirebaseUID  *string    `gorm:"type:varchar(128);uniqueIndex"`
	Role         string     `gorm:"type:varchar(32);not null;default:'buyer'"`
	Status       string     `gorm:"type:varchar(16);not null;default:'active'"`
	LastSignInAt *time.Time `gorm:"column:last_sign_in_at"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Active reports whether the account may sign in.
func (u *User) Active() bool {
	return u.Status != string(StatusInactive)
}

// --- DTOs ---

// CreateUserRequest seeds a directory account.
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"` // bcrypt max is 72 bytes
	DisplayName string `json:"display_name,omitempty" binding:"omitempty,max=150"`
	Role        string `json:"role" binding:"required,oneof=admin manager buyer"`
}

// UpdateRoleRequest changes a directory account's role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin manager buyer"`
}

// UpdateStatusRequest activates or deactivates an account.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name,omitempty"`
	PhotoURL     *string    `json:"photo_url,omitempty"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PhotoURL:     u.PhotoURL,
		Role:         u.Role,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		LastSignInAt: u.LastSignInAt,
	}
}
