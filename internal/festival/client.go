package festival

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is the HTTP implementation of CredentialStore, for gates running
// out of process from the backend. BaseURL points at the server root, e.g.
// "https://api.example.org".
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("festival api: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) Credential(ctx context.Context, code string, kind Kind) (Credential, error) {
	var cred Credential
	path := fmt.Sprintf("/festivals/%s/credential/%s", url.PathEscape(code), kind)
	if err := c.get(ctx, path, &cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

func (c *Client) Info(ctx context.Context, code string) (Info, error) {
	var info Info
	if err := c.get(ctx, "/festivals/"+url.PathEscape(code), &info); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (c *Client) Rotate(ctx context.Context, code string, kind Kind, newSecret string) (time.Time, error) {
	body, _ := json.Marshal(map[string]string{"secret": newSecret})
	path := fmt.Sprintf("/festivals/%s/credential/%s/rotate", url.PathEscape(code), kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			RotatedAt time.Time `json:"rotated_at"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return time.Time{}, err
		}
		return out.RotatedAt, nil
	case http.StatusNotFound:
		return time.Time{}, ErrNotFound
	default:
		return time.Time{}, fmt.Errorf("festival api: unexpected status %d", resp.StatusCode)
	}
}

// RemoteVerifier submits the attempted secret to the backend and lets the
// comparison happen server-side. The stored secret never reaches the
// caller; the success response carries only the rotation token and the
// password flag.
type RemoteVerifier struct {
	BaseURL string
	HTTP    *http.Client
}

func (v RemoteVerifier) httpClient() *http.Client {
	if v.HTTP != nil {
		return v.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (v RemoteVerifier) Verify(ctx context.Context, code string, kind Kind, secret string) (Credential, error) {
	body, _ := json.Marshal(map[string]string{
		"kind":   string(kind),
		"secret": secret,
	})
	path := fmt.Sprintf("/festivals/%s/verify", url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return Credential{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient().Do(req)
	if err != nil {
		return Credential{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var cred Credential
		if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
			return Credential{}, err
		}
		return cred, nil
	case http.StatusUnauthorized:
		return Credential{}, ErrBadSecret
	case http.StatusNotFound:
		return Credential{}, ErrNotFound
	default:
		return Credential{}, fmt.Errorf("festival api: unexpected status %d", resp.StatusCode)
	}
}
