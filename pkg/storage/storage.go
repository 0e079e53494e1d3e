// Package storage keeps scan photos in Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/JaimeStill/rackscan/pkg/lifecycle"
)

// System stores and retrieves blobs by key within one container. Keys are
// relative paths; empty keys, absolute keys, and keys containing ".." or
// backslashes are rejected before any request is made.
type System interface {
	// Start ensures the container exists once the lifecycle starts.
	Start(lc *lifecycle.Coordinator) error
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download opens the blob at key. The caller closes the body.
	Download(ctx context.Context, key string) (*BlobResult, error)
	Find(ctx context.Context, key string) (*BlobMeta, error)
	// List returns one page of blobs under prefix, resuming at marker.
	List(ctx context.Context, prefix, marker string, maxResults int32) (*BlobList, error)
	Delete(ctx context.Context, key string) error
}

type azure struct {
	client    *container.Client
	container string
	logger    *slog.Logger
}

// New builds the container client. No request is made until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: cfg.MaxRetries},
		},
	}

	svc, err := serviceClient(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    svc.ServiceClient().NewContainerClient(cfg.ContainerName),
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage", "container", cfg.ContainerName),
	}, nil
}

// serviceClient prefers a connection string (Azurite, local dev) and falls
// back to the default Azure credential chain against ServiceURL.
func serviceClient(cfg *Config, opts *azblob.ClientOptions) (*azblob.Client, error) {
	if cfg.ConnectionString != "" {
		return azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return azblob.NewClient(cfg.ServiceURL, cred, opts)
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		_, err := a.client.Create(lc.Context(), nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.logger.Error("container initialization failed", "error", err)
			return
		}
		a.logger.Info("container ready")
	})
	return nil
}

func (a *azure) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := a.client.NewBlockBlobClient(key).UploadStream(ctx, reader, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	return wrap("upload", key, err)
}

func (a *azure) Download(ctx context.Context, key string) (*BlobResult, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.NewBlobClient(key).DownloadStream(ctx, nil)
	if err != nil {
		return nil, wrap("download", key, err)
	}

	return &BlobResult{
		Body:          resp.Body,
		ContentType:   deref(resp.ContentType),
		ContentLength: deref(resp.ContentLength),
	}, nil
}

func (a *azure) Find(ctx context.Context, key string) (*BlobMeta, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	props, err := a.client.NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, wrap("find", key, err)
	}

	return &BlobMeta{
		Key:           key,
		ContentType:   deref(props.ContentType),
		ContentLength: deref(props.ContentLength),
		LastModified:  deref(props.LastModified),
		ETag:          string(deref(props.ETag)),
	}, nil
}

func (a *azure) List(ctx context.Context, prefix, marker string, maxResults int32) (*BlobList, error) {
	opts := &container.ListBlobsFlatOptions{MaxResults: &maxResults}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	if marker != "" {
		opts.Marker = &marker
	}

	result := &BlobList{Blobs: []BlobMeta{}}

	pager := a.client.NewListBlobsFlatPager(opts)
	if !pager.More() {
		return result, nil
	}

	page, err := pager.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blobs %q: %w", prefix, err)
	}

	if page.Segment != nil {
		for _, item := range page.Segment.BlobItems {
			result.Blobs = append(result.Blobs, itemMeta(item))
		}
	}
	result.NextMarker = deref(page.NextMarker)
	return result, nil
}

func (a *azure) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := a.client.NewBlobClient(key).Delete(ctx, nil)
	return wrap("delete", key, err)
}

func itemMeta(item *container.BlobItem) BlobMeta {
	meta := BlobMeta{Key: deref(item.Name)}
	if p := item.Properties; p != nil {
		meta.ContentType = deref(p.ContentType)
		meta.ContentLength = deref(p.ContentLength)
		meta.LastModified = deref(p.LastModified)
		meta.ETag = string(deref(p.ETag))
	}
	return meta
}

// wrap maps a missing blob to ErrNotFound and annotates anything else.
func wrap(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%s blob %s: %w", op, key, err)
	}
}

func validateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case strings.HasPrefix(key, "/"),
		strings.Contains(key, ".."),
		strings.Contains(key, `\`):
		return ErrInvalidKey
	}
	return nil
}
