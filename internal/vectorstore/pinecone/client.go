package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
)

// ErrNotFound is returned when the index does not exist.
var ErrNotFound = errors.New("pinecone: index not found")

// Config configures both the control plane client and the data plane storage.
type Config struct {
	APIKey     string
	ControlURL string
	IndexName  string
	Namespace  string
	Dimension  int
	Metric     string
	Cloud      string
	Region     string
	Timeout    time.Duration
	// PollInterval spaces readiness checks while an index is created or deleted.
	PollInterval time.Duration
}

// IndexStatus is the readiness reported by the control plane.
type IndexStatus struct {
	Ready bool
	State string
}

// IndexDescription is the subset of the index model the CLI and storage use.
type IndexDescription struct {
	Name      string
	Dimension int
	Metric    string
	Host      string
	Status    IndexStatus
}

// Client manages the lifecycle of one serverless index.
type Client struct {
	cfg Config
	pc  *pinecone.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone: missing API key")
	}
	if cfg.IndexName == "" {
		return nil, errors.New("pinecone: missing index name")
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:     cfg.APIKey,
		Host:       cfg.ControlURL,
		RestClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone client: %w", err)
	}
	return &Client{cfg: cfg, pc: pc}, nil
}

func (c *Client) IndexName() string { return c.cfg.IndexName }

// Describe returns ErrNotFound when the index is absent.
func (c *Client) Describe(ctx context.Context) (IndexDescription, error) {
	ok, err := c.exists(ctx)
	if err != nil {
		return IndexDescription{}, err
	}
	if !ok {
		return IndexDescription{}, ErrNotFound
	}
	idx, err := c.pc.DescribeIndex(ctx, c.cfg.IndexName)
	if err != nil {
		return IndexDescription{}, err
	}
	return describe(idx), nil
}

// List returns the names of all indexes in the project.
func (c *Client) List(ctx context.Context) ([]string, error) {
	indexes, err := c.pc.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		if idx != nil {
			names = append(names, idx.Name)
		}
	}
	return names, nil
}

// Create provisions a serverless index with the configured dimension and metric.
func (c *Client) Create(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		dimension = c.cfg.Dimension
	}
	dim := int32(dimension)
	metric := pinecone.IndexMetric(c.cfg.Metric)
	_, err := c.pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      c.cfg.IndexName,
		Dimension: &dim,
		Metric:    &metric,
		Cloud:     pinecone.Cloud(c.cfg.Cloud),
		Region:    c.cfg.Region,
	})
	return err
}

// Delete removes the index. A missing index is not an error.
func (c *Client) Delete(ctx context.Context) error {
	ok, err := c.exists(ctx)
	if err != nil || !ok {
		return err
	}
	return c.pc.DeleteIndex(ctx, c.cfg.IndexName)
}

// WaitReady polls until the index reports ready.
func (c *Client) WaitReady(ctx context.Context) (IndexDescription, error) {
	for {
		desc, err := c.Describe(ctx)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return IndexDescription{}, err
		}
		if err == nil && desc.Status.Ready {
			return desc, nil
		}
		if err := sleep(ctx, c.cfg.PollInterval); err != nil {
			return IndexDescription{}, err
		}
	}
}

// WaitGone polls until the index no longer exists.
func (c *Client) WaitGone(ctx context.Context) error {
	for {
		ok, err := c.exists(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := sleep(ctx, c.cfg.PollInterval); err != nil {
			return err
		}
	}
}

// Recreate deletes the index if present and provisions it again with dimension.
func (c *Client) Recreate(ctx context.Context, dimension int) (IndexDescription, error) {
	if err := c.Delete(ctx); err != nil {
		return IndexDescription{}, fmt.Errorf("delete index: %w", err)
	}
	if err := c.WaitGone(ctx); err != nil {
		return IndexDescription{}, fmt.Errorf("wait for deletion: %w", err)
	}
	if err := c.Create(ctx, dimension); err != nil {
		return IndexDescription{}, fmt.Errorf("create index: %w", err)
	}
	desc, err := c.WaitReady(ctx)
	if err != nil {
		return IndexDescription{}, fmt.Errorf("wait for index: %w", err)
	}
	if desc.Dimension != dimension {
		return desc, fmt.Errorf("index %s has dimension %d, want %d", desc.Name, desc.Dimension, dimension)
	}
	return desc, nil
}

// exists checks the index list rather than matching on a describe error.
func (c *Client) exists(ctx context.Context) (bool, error) {
	names, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == c.cfg.IndexName {
			return true, nil
		}
	}
	return false, nil
}

// connect opens a data plane connection to host in the configured namespace.
func (c *Client) connect(host string) (dataPlane, error) {
	conn, err := c.pc.Index(pinecone.NewIndexConnParams{Host: host, Namespace: c.cfg.Namespace})
	if err != nil {
		return nil, fmt.Errorf("pinecone: connect to %s: %w", host, err)
	}
	return conn, nil
}

func describe(idx *pinecone.Index) IndexDescription {
	d := IndexDescription{Name: idx.Name, Host: idx.Host, Metric: string(idx.Metric)}
	if idx.Dimension != nil {
		d.Dimension = int(*idx.Dimension)
	}
	if idx.Status != nil {
		d.Status = IndexStatus{Ready: idx.Status.Ready, State: string(idx.Status.State)}
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
