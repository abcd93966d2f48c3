// Package evidencestore is a thin client for the object store that keeps
// uploaded payment proof images. Objects are never publicly addressable;
// reads go through short-lived signed URLs.
package evidencestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"registration-system/utils"
)

type Config struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	AccessKey string `json:"accessKey" mapstructure:"access_key"`
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
}

type Client struct {
	baseURL   string
	bucket    string
	accessKey string
	secretKey string

	// signTTL is the lifetime of signed retrieval URLs.
	signTTL time.Duration

	hc *http.Client
}

func NewClient(cfg *Config, signTTL time.Duration) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		bucket:    cfg.Bucket,
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		signTTL:   signTTL,

		hc: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload stores one object under key and returns the opaque reference the
// registration record will carry. The caller validates type and size first.
func (c *Client) Upload(ctx context.Context, key, mimeType string, size int64, r io.Reader) (string, error) {
	target := fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, r)
	if err != nil {
		return "", fmt.Errorf("evidence upload: http.NewReq: %v", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Access-Key", c.accessKey)
	req.Header.Set("X-Signature", utils.Hmac256([]byte(fmt.Sprintf("PUT\n%s/%s", c.bucket, key)), []byte(c.secretKey)))

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("evidence upload: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("evidence upload: status %d", resp.StatusCode)
	}

	var reply struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		// Some deployments return an empty body; the key we sent is the ref.
		return key, nil
	}
	if reply.Key != "" {
		return reply.Key, nil
	}
	return key, nil
}

// SignURL exchanges an object reference for a time-limited retrieval URL.
// The signature covers the object path and the expiry timestamp.
func (c *Client) SignURL(_ context.Context, ref string) (string, error) {
	expires := time.Now().Add(c.signTTL).Unix()

	path := fmt.Sprintf("%s/%s", c.bucket, ref)
	sig := utils.Hmac256([]byte(fmt.Sprintf("GET\n%s\n%d", path, expires)), []byte(c.secretKey))

	q := url.Values{}
	q.Set("access", c.accessKey)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", sig)

	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode()), nil
}
