package handlers

import (
	stderrors "errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/uniconnect/backend/internal/auth"
	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/groups"
	"github.com/uniconnect/backend/internal/kernel"
	"github.com/uniconnect/backend/internal/notifications"
	"github.com/uniconnect/backend/internal/repository"
	"github.com/uniconnect/backend/internal/storage"
	"github.com/uniconnect/backend/internal/telemetry"
	"github.com/uniconnect/backend/internal/websocket"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db            *gorm.DB
	cache         *cache.Cache
	auth          *auth.Service
	users         repository.UserRepository
	posts         repository.PostRepository
	connections   repository.ConnectionRepository
	messages      repository.MessageRepository
	groups        *groups.Service
	notifications *notifications.Service
	uploader      storage.Uploader
	hub           *websocket.Hub

	chatbotURL     string
	chatbotClient  *http.Client
	chatbotBreaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewHandlers builds handlers from a wired kernel
func NewHandlers(k *kernel.Kernel) *Handlers {
	return &Handlers{
		db:            k.DB(),
		cache:         k.Cache(),
		auth:          k.Auth(),
		users:         k.Users(),
		posts:         k.Posts(),
		connections:   k.Connections(),
		messages:      k.Messages(),
		groups:        k.Groups(),
		notifications: k.Notifications(),
		uploader:      k.Uploader(),
		hub:           k.Hub(),
	}
}

// SetChatbot configures the upstream chatbot service. A nil client gets an
// instrumented default.
func (h *Handlers) SetChatbot(url string, client *http.Client) {
	if client == nil {
		client = telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{ServiceName: "chatbot"})
	}
	h.chatbotURL = url
	h.chatbotClient = client
	h.chatbotBreaker = newChatbotBreaker()
}

// uploadFormFile stores a multipart file under folder. Returns a nil result
// when the form has no such field.
func (h *Handlers) uploadFormFile(c *gin.Context, field, folder, ownerID string) (*storage.UploadResult, error) {
	fh, err := c.FormFile(field)
	if stderrors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h.storeFile(c, fh, folder, ownerID)
}

func (h *Handlers) storeFile(c *gin.Context, fh *multipart.FileHeader, folder, ownerID string) (*storage.UploadResult, error) {
	if h.uploader == nil {
		return nil, storage.ErrNotConfigured
	}
	if fh.Size > storage.MaxUploadSize {
		return nil, storage.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return h.uploader.Upload(c.Request.Context(), f, fh.Size, storage.UploadInput{
		Folder:      folder,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		OwnerID:     ownerID,
	})
}
