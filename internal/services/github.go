package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/util"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// GithubVerifierConfig holds the settings for the GitHub API client
type GithubVerifierConfig struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// GithubVerifier checks that a repository exists and is reachable before a
// project is connected to it. Requests go through a retrying client so a
// transient GitHub API failure does not reject a valid repository.
type GithubVerifier struct {
	baseURL     string
	retryClient *retry.Client
}

// githubHeaderTransport injects the API headers GitHub expects on every request
type githubHeaderTransport struct {
	token string
	base  http.RoundTripper
}

func (t *githubHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewGithubVerifier creates a GitHub API client with retry support
func NewGithubVerifier(cfg GithubVerifierConfig) (*GithubVerifier, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}

	client, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithTransport(&githubHeaderTransport{token: cfg.Token}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create github http client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(cfg.MaxRetries),
		retry.WithInitialRetryDelay(cfg.RetryDelay),
		retry.WithMaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return &GithubVerifier{
		baseURL:     cfg.BaseURL,
		retryClient: retryClient,
	}, nil
}

// VerifyRepository confirms that owner/name resolves to a visible repository.
// A 404 or 410 from the API maps to ErrRepositoryNotFound; other failures
// surface as transport errors after retries are exhausted.
func (v *GithubVerifier) VerifyRepository(ctx context.Context, owner, name string) error {
	url := fmt.Sprintf("%s/repos/%s/%s", v.baseURL, owner, name)

	resp, err := v.retryClient.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("github repository lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrRepositoryNotFound
	default:
		return fmt.Errorf("github repository lookup: unexpected status %d", resp.StatusCode)
	}
}

// GenerateWebhookSecret produces a random shared secret for a new
// repository connection.
func GenerateWebhookSecret() (string, error) {
	secret, err := util.CryptoRandomString(64)
	if err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return secret, nil
}
