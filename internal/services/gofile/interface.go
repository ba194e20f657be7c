package gofile

import "context"

// ClientAPI defines the methods required to interact with Gofile.
// It mirrors the concrete client so it can be mocked in tests.
type ClientAPI interface {
	GetServers(ctx context.Context) ([]Server, error)
	UploadURL(server Server) string
	UploadMultipart(ctx context.Context, url, filePath, field string, fields map[string]string) (*Envelope, error)
}
