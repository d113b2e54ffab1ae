// Package kerneltest wires a Kernel over in-process stand-ins for tests.
package kerneltest

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/uniconnect/backend/internal/config"
	"github.com/uniconnect/backend/internal/email"
	"github.com/uniconnect/backend/internal/kernel"
	"github.com/uniconnect/backend/internal/testutil"
	"github.com/uniconnect/backend/internal/websocket"
)

// JWTSecret signs tokens issued by a test kernel
const JWTSecret = "test-secret"

// CDNBaseURL prefixes uploads stored by a test kernel
const CDNBaseURL = "https://cdn.test"

// New wires a kernel over in-memory sqlite, miniredis and an
// in-memory object store. The hub is shut down when the test ends.
func New(t testing.TB, mailer email.Sender) (*kernel.Kernel, *miniredis.Miniredis) {
	t.Helper()

	c, mr := testutil.NewCache(t)
	hub := websocket.NewHub()

	k := kernel.New().
		SetDB(testutil.NewDB(t)).
		SetCache(c).
		SetHub(hub).
		SetUploader(testutil.NewUploader(testutil.NewObjectStore(), CDNBaseURL)).
		SetMailer(mailer).
		SetAuthConfig(config.AuthConfig{
			JWTSecret:           JWTSecret,
			LoginTokenTTL:       time.Hour,
			VerifiedTokenTTL:    time.Hour,
			VerificationCodeTTL: 10 * time.Minute,
		})
	if err := k.Wire(); err != nil {
		t.Fatalf("wire test kernel: %v", err)
	}

	t.Cleanup(func() { _ = hub.Shutdown(context.Background()) })
	return k, mr
}
