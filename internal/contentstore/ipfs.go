package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// Default timeouts per call
const (
	DefaultUploadTimeout   = 30 * time.Second
	DefaultDownloadTimeout = 60 * time.Second
	DefaultStatTimeout     = 10 * time.Second
	DefaultMaxUploadBytes  = 500 * 1024 * 1024
)

// Config holds IPFS endpoint configuration
type Config struct {
	APIURL          string
	GatewayURL      string
	UploadTimeout   time.Duration
	DownloadTimeout time.Duration
	StatTimeout     time.Duration
	MaxUploadBytes  int64
	HTTPClient      *http.Client
}

// IPFSClient implements Store against an IPFS node HTTP API and gateway.
// Node API calls go through go-ipfs-api, downloads are plain gateway GETs.
type IPFSClient struct {
	sh              *shell.Shell
	gatewayURL      string
	uploadTimeout   time.Duration
	downloadTimeout time.Duration
	statTimeout     time.Duration
	maxUploadBytes  int64
	client          *http.Client
	logger          *slog.Logger
}

// NewIPFSClient creates a new IPFSClient
func NewIPFSClient(cfg *Config, logger *slog.Logger) *IPFSClient {
	c := &IPFSClient{
		gatewayURL:      strings.TrimRight(cfg.GatewayURL, "/"),
		uploadTimeout:   cfg.UploadTimeout,
		downloadTimeout: cfg.DownloadTimeout,
		statTimeout:     cfg.StatTimeout,
		maxUploadBytes:  cfg.MaxUploadBytes,
		client:          cfg.HTTPClient,
		logger:          logger,
	}
	if c.uploadTimeout <= 0 {
		c.uploadTimeout = DefaultUploadTimeout
	}
	if c.downloadTimeout <= 0 {
		c.downloadTimeout = DefaultDownloadTimeout
	}
	if c.statTimeout <= 0 {
		c.statTimeout = DefaultStatTimeout
	}
	if c.maxUploadBytes <= 0 {
		c.maxUploadBytes = DefaultMaxUploadBytes
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	c.sh = shell.NewShellWithClient(strings.TrimRight(cfg.APIURL, "/"), c.client)
	return c
}

// Upload adds data to the node and returns the resulting hash
func (c *IPFSClient) Upload(ctx context.Context, data []byte) (string, error) {
	if int64(len(data)) > c.maxUploadBytes {
		return "", &domain.UploadError{Err: fmt.Errorf("%w: %s exceeds %s",
			domain.ErrPayloadTooLarge, domain.FormatSize(int64(len(data))), domain.FormatSize(c.maxUploadBytes))}
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	start := time.Now()
	var result struct {
		Hash string `json:"Hash"`
		Size string `json:"Size"`
	}
	err := c.sh.Request("add").
		Option("pin", true).
		FileBody(bytes.NewReader(data)).
		Exec(ctx, &result)
	if err != nil {
		return "", &domain.UploadError{Err: fmt.Errorf("failed to add payload: %w", err)}
	}
	if result.Hash == "" {
		return "", &domain.UploadError{Err: fmt.Errorf("add response carried no hash")}
	}

	c.logger.Info("Payload uploaded",
		slog.String("hash", result.Hash),
		slog.String("size", domain.FormatSize(int64(len(data)))),
		slog.Duration("latency", time.Since(start)),
	)

	return result.Hash, nil
}

// Download fetches hash from the gateway into dest
func (c *IPFSClient) Download(ctx context.Context, hash, dest string) error {
	if hash == "" {
		return &domain.DownloadError{Hash: hash, Err: fmt.Errorf("empty content hash")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL+"/ipfs/"+url.PathEscape(hash), nil)
	if err != nil {
		return &domain.DownloadError{Hash: hash, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.DownloadError{Hash: hash, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.DownloadError{Hash: hash, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	n, err := writeAtomic(dest, resp.Body)
	if err != nil {
		return &domain.DownloadError{Hash: hash, Err: err}
	}

	c.logger.Info("Result downloaded",
		slog.String("hash", hash),
		slog.String("path", dest),
		slog.String("size", domain.FormatSize(n)),
	)

	return nil
}

// Stat asks the node for object metadata. An error answer from the node yields (nil, nil).
func (c *IPFSClient) Stat(ctx context.Context, hash string) (*ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.statTimeout)
	defer cancel()

	var info ObjectInfo
	err := c.sh.Request("object/stat", hash).Exec(ctx, &info)
	if err == nil {
		return &info, nil
	}

	var nodeErr *shell.Error
	if errors.As(err, &nodeErr) {
		c.logger.Debug("Object stat returned no info",
			slog.String("hash", hash),
			slog.String("reason", nodeErr.Message),
		)
		return nil, nil
	}
	return nil, fmt.Errorf("failed to stat %s: %w", hash, err)
}

// writeAtomic copies r into a temp file next to dest and renames it into place
func writeAtomic(dest string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		committed = true
		return 0, fmt.Errorf("failed to move result into place: %w", err)
	}
	committed = true

	return n, nil
}
