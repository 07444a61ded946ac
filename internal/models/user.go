package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an account. Username is the public id shown as @username by clients.
// Password holds a bcrypt hash; FirebaseUID is nil for local accounts.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"public_id" gorm:"size:150;not null;uniqueIndex"`
	HandleName  string    `json:"handle_name" gorm:"size:50;not null;default:''"`
	Email       string    `json:"email" gorm:"size:254;not null;uniqueIndex"`
	Password    string    `json:"-"`
	FirebaseUID *string   `json:"-" gorm:"size:128;uniqueIndex"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public view of a user embedded in other payloads
type UserCompact struct {
	ID         uint   `json:"id"`
	PublicID   string `json:"public_id"`
	HandleName string `json:"handle_name"`
}

// ToCompact returns the public view of u.
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, PublicID: u.Username, HandleName: u.HandleName}
}

// UserProfile is a public user with follow counts and the viewer's follow state
type UserProfile struct {
	UserCompact
	FollowingCount int64 `json:"following_count"`
	FollowersCount int64 `json:"followers_count"`
	IsFollowed     bool  `json:"is_followed"`
}

// UserDetail is the owner's view of their own account
type UserDetail struct {
	UserProfile
	Email string `json:"email"`
}

type CreateLocalUserRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=150,username"`
	HandleName string `json:"handle_name" validate:"max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password1  string `json:"password1" validate:"required,min=8"`
	Password2  string `json:"password2" validate:"required,eqfield=Password1"`
}

// SignInRequest accepts either a username or an email as Login
type SignInRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Username   string  `json:"public_id,omitempty" validate:"omitempty,min=3,max=150,username"`
	HandleName *string `json:"handle_name,omitempty" validate:"omitempty,max=50"`
	Email      string  `json:"email,omitempty" validate:"omitempty,email"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
