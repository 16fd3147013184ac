package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	apperrors "secure-drive/pkg/errors"

	shell "github.com/ipfs/go-ipfs-api"
	"go.uber.org/zap"
)

const (
	errFailedAddFmt  = "failed to add content to IPFS: %w"
	errFailedCatFmt  = "failed to read content from IPFS: %w"
	errFailedPingFmt = "IPFS node unreachable: %w"
	errNodeFmt       = "IPFS node error: %s"
)

// Client talks to a Kubo node over its HTTP RPC API.
type Client struct {
	sh     *shell.Shell
	mfsDir string
	logger *zap.Logger
}

func NewClient(apiURL, mfsDir string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		sh:     shell.NewShellWithClient(apiURL, httpClient),
		mfsDir: mfsDir,
		logger: logger,
	}
}

// Add pins data on the node. Ids are CIDv1 with raw leaves, so small files
// hash to the same id a local computation would give.
func (c *Client) Add(ctx context.Context, data []byte, name string) (string, error) {
	type result struct {
		id  string
		err error
	}

	done := make(chan result, 1)
	go func() {
		id, err := c.sh.Add(bytes.NewReader(data), shell.Pin(true), shell.CidVersion(1), shell.RawLeaves(true))
		done <- result{id, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return "", fmt.Errorf(errFailedAddFmt, ctx.Err())
	case r = <-done:
	}
	if r.err != nil {
		return "", fmt.Errorf(errFailedAddFmt, r.err)
	}

	c.mirrorToMFS(ctx, data, name)
	return r.id, nil
}

// mirrorToMFS copies the upload into the node's mutable file system so it
// shows up in the web UI. Failures are only logged.
func (c *Client) mirrorToMFS(ctx context.Context, data []byte, name string) {
	if c.mfsDir == "" || name == "" {
		return
	}

	target := path.Join(c.mfsDir, path.Base(name))
	err := c.sh.FilesWrite(ctx, target, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true),
	)
	if err != nil {
		c.logger.Warn("failed to mirror upload into MFS", zap.String("path", target), zap.Error(err))
	}
}

func (c *Client) Cat(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.sh.Request("cat", id).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf(errFailedCatFmt, err)
	}
	defer resp.Close()

	if resp.Error != nil {
		if strings.Contains(strings.ToLower(resp.Error.Message), "not found") {
			return nil, fmt.Errorf(errFailedCatFmt, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf(errNodeFmt, resp.Error.Message)
	}

	data, err := io.ReadAll(resp.Output)
	if err != nil {
		return nil, fmt.Errorf(errFailedCatFmt, err)
	}
	return data, nil
}

// Ping asks the node for its identity.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		ID string `json:"ID"`
	}
	if err := c.sh.Request("id").Exec(ctx, &out); err != nil {
		return fmt.Errorf(errFailedPingFmt, err)
	}
	return nil
}
