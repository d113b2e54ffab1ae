package dto

import (
	"time"

	"github.com/uniconnect/backend/internal/models"
)

// UserSummary is the compact user projection embedded wherever another
// document references a user (post author, group admin, message sender)
type UserSummary struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Username       string `json:"username,omitempty"`
	Institute      string `json:"institute,omitempty"`
	Headline       string `json:"headline,omitempty"`
	ProfilePicture string `json:"profilePicture"`
}

// UserResponse is the full public profile (never includes credentials)
type UserResponse struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Institute      string    `json:"institute"`
	Role           string    `json:"role"`
	IsVerified     bool      `json:"isVerified"`
	Badges         []string  `json:"badges"`
	Points         int       `json:"points"`
	Headline       string    `json:"headline"`
	Location       string    `json:"location"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SuggestionResponse is a discoverable user with the caller's relationship status
type SuggestionResponse struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Institute string `json:"institute"`
	Headline  string `json:"headline"`
	Status    string `json:"status"`
}

// InvitationResponse is a pending connection request addressed to the caller
type InvitationResponse struct {
	ID   string       `json:"_id"`
	User *UserSummary `json:"user"`
}

// NetworkResponse lists the caller's pending invitations and accepted connections
type NetworkResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
	Connections []*UserSummary       `json:"connections"`
}

// RegisterRequest for email registration
type RegisterRequest struct {
	Name      string `json:"name" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Institute string `json:"institute" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

// VerifyRequest submits the emailed verification code
type VerifyRequest struct {
	UserID string `json:"userId" binding:"required"`
	Code   string `json:"code" binding:"required,len=4,numeric"`
}

// LoginRequest for email/password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest lists the only profile fields a user may change.
// Email, password, role and id are not updatable through this route.
type UpdateProfileRequest struct {
	Name           *string  `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Username       *string  `json:"username,omitempty" binding:"omitempty,min=1,max=50"`
	Institute      *string  `json:"institute,omitempty"`
	Headline       *string  `json:"headline,omitempty" binding:"omitempty,max=200"`
	Location       *string  `json:"location,omitempty"`
	ProfilePicture *string  `json:"profilePicture,omitempty"`
	Badges         []string `json:"badges,omitempty"`
}

// ToUserSummary converts a user to its compact projection
func ToUserSummary(user *models.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:             user.ID,
		Name:           user.Name,
		Username:       user.Username,
		Institute:      user.Institute,
		Headline:       user.Headline,
		ProfilePicture: user.ProfilePicture,
	}
}

// ToUserSummaries converts a slice of users, preserving order
func ToUserSummaries(users []*models.User) []*UserSummary {
	out := make([]*UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserSummary(u))
	}
	return out
}

// ToUserResponse converts models.User to UserResponse (excludes sensitive fields)
func ToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	badges := user.Badges
	if badges == nil {
		badges = []string{}
	}
	return &UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Username:       user.Username,
		Email:          user.Email,
		Institute:      user.Institute,
		Role:           user.Role,
		IsVerified:     user.IsVerified,
		Badges:         badges,
		Points:         user.Points,
		Headline:       user.Headline,
		Location:       user.Location,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}
