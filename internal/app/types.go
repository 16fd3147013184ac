package app

import (
	"context"

	"secure-drive/internal/content"
)

// closer releases a resource at shutdown. Closers run in reverse order of
// acquisition.
type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// backendHandle is the content backend selected by CONTENT_BACKEND together
// with its release hook, if any.
type backendHandle struct {
	backend content.Backend
	close   func(ctx context.Context) error
}
