package dto

import (
	"time"

	"github.com/uniconnect/backend/internal/models"
)

// PostResponse is a post with its author, likers and comments resolved
type PostResponse struct {
	ID        string            `json:"_id"`
	User      *UserSummary      `json:"user"`
	Text      string            `json:"text"`
	Image     string            `json:"image"`
	Likes     []string          `json:"likes"`
	Comments  []CommentResponse `json:"comments"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// CommentResponse is a post comment with its author
type CommentResponse struct {
	ID        string       `json:"_id"`
	User      *UserSummary `json:"user"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"createdAt"`
}

// GroupListItem is one entry of the per-user group list
type GroupListItem struct {
	models.Group
	Admins       []*UserSummary `json:"admins"`
	Members      []string       `json:"members"`
	JoinRequests []string       `json:"joinRequests"`
	IsMember     bool           `json:"isMember"`
	IsAdmin      bool           `json:"isAdmin"`
}

// GroupDetail is a single group with every user reference populated
type GroupDetail struct {
	models.Group
	Admins       []*UserSummary `json:"admins"`
	Members      []*UserSummary `json:"members"`
	JoinRequests []*UserSummary `json:"joinRequests"`
}

// MessageResponse is a chat message with its sender populated
type MessageResponse struct {
	ID        string       `json:"_id"`
	Sender    *UserSummary `json:"sender"`
	Receiver  *string      `json:"receiver,omitempty"`
	Group     *string      `json:"group,omitempty"`
	Text      string       `json:"text"`
	FileURL   string       `json:"fileUrl"`
	FileType  string       `json:"fileType"`
	FileName  string       `json:"fileName"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NotificationResponse is a notification with its sender populated
type NotificationResponse struct {
	models.Notification
	Sender *UserSummary `json:"sender"`
}

// ToCommentResponses converts post comments in stored order
func ToCommentResponses(comments []models.PostComment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		out = append(out, CommentResponse{
			ID:        c.ID,
			User:      ToUserSummary(c.User),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

// ToPostResponse converts a post whose User, Likes and Comments are preloaded
func ToPostResponse(p *models.Post) PostResponse {
	likes := make([]string, 0, len(p.Likes))
	for _, l := range p.Likes {
		likes = append(likes, l.UserID)
	}
	return PostResponse{
		ID:        p.ID,
		User:      ToUserSummary(p.User),
		Text:      p.Text,
		Image:     p.Image,
		Likes:     likes,
		Comments:  ToCommentResponses(p.Comments),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToMessageResponse converts a message whose Sender is preloaded
func ToMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Sender:    ToUserSummary(m.Sender),
		Receiver:  m.ReceiverID,
		Group:     m.GroupID,
		Text:      m.Text,
		FileURL:   m.FileURL,
		FileType:  m.FileType,
		FileName:  m.FileName,
		CreatedAt: m.CreatedAt,
	}
}

// ToMessageResponses converts messages preserving order
func ToMessageResponses(msgs []*models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageResponse(m))
	}
	return out
}

// ToNotificationResponse converts a notification whose Sender is preloaded
func ToNotificationResponse(n *models.Notification) NotificationResponse {
	return NotificationResponse{Notification: *n, Sender: ToUserSummary(n.Sender)}
}

// ToNotificationResponses converts notifications preserving order
func ToNotificationResponses(ns []*models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, ToNotificationResponse(n))
	}
	return out
}
