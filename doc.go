// Package backend is the UniConnect API server.
//
// The server binary lives in cmd/server and the operator CLI in cmd/cli.
// Code is organized into subpackages:
//
//   - internal/handlers: HTTP request handlers for all API endpoints
//   - internal/websocket: WebSocket hub, rooms and presence
//   - internal/chat: socket chat events (direct and group messages)
//   - internal/groups: group lifecycle with cache invalidation and fan-out
//   - internal/notifications: notification persistence and live delivery
//   - internal/cache: Redis response cache and its invalidation policy
//   - internal/auth: registration, email verification and JWT sessions
//   - internal/repository: gorm data access
//   - internal/storage: S3 file uploads
//   - internal/email: verification email delivery
//   - internal/seed: generated development data
//
// See the individual package documentation for details.
package backend
