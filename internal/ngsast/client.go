package ngsast

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/ngsast/bestfix/internal/config"
	"github.com/ngsast/bestfix/internal/httpclient"
)

// Client talks to the NG SAST findings API.
type Client struct {
	httpc   *resty.Client
	apiHost string
	scheme  string
	perPage int
	logger  hclog.Logger
}

// NewClient builds an API client from the global configuration. The access
// token is sent as a bearer token on every request.
func NewClient(cfg *config.Config, logger hclog.Logger, token string) *Client {
	httpc := httpclient.NewRestyClient(logger, cfg)
	httpc.SetHeader("Content-Type", "application/json")
	httpc.SetAuthToken(token)

	perPage := cfg.NGSAST.PerPage
	if perPage < 1 {
		perPage = 249
	}
	return &Client{
		httpc:   httpc,
		apiHost: cfg.NGSAST.APIHost,
		scheme:  "https",
		perPage: perPage,
		logger:  logger,
	}
}

// APIHost returns the configured API host, used by the reporting layer to
// construct finding deep links.
func (c *Client) APIHost() string {
	return c.apiHost
}

// findingsURL builds the first-page findings URL for an app.
func (c *Client) findingsURL(orgID, appID, version string, ratings []string) string {
	u := fmt.Sprintf(
		"%s://%s/api/v4/orgs/%s/apps/%s/findings?per_page=%d&type=oss_vuln&type=vuln&include_dataflows=true",
		c.scheme, c.apiHost, orgID, appID, c.perPage,
	)
	if version != "" {
		u += "&version=" + url.QueryEscape(version)
	}
	for _, rating := range ratings {
		u += "&finding_tags=" + url.QueryEscape("cvss_31_severity_rating="+rating)
	}
	return u
}

// pinHost rewrites the host of a next_page URL to the configured API host.
// The API returns absolute links pointing at its canonical origin, which can
// differ from the host the tenant is reached through.
func (c *Client) pinHost(pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse next page url %q: %w", pageURL, err)
	}
	parsed.Scheme = c.scheme
	parsed.Host = c.apiHost
	return parsed.String(), nil
}

// FindingsWithScan retrieves all findings of an app together with the scan
// they belong to, following pagination until exhausted. Ratings filter the
// listing by cvss_31_severity_rating tags. A nil scan with no error means the
// app has no scan yet.
func (c *Client) FindingsWithScan(ctx context.Context, orgID, appID, version string, ratings []string) (*Scan, []Finding, error) {
	var (
		scan     *Scan
		findings []Finding
	)

	pageURL := c.findingsURL(orgID, appID, version, ratings)
	for pageURL != "" {
		var envelope findingsEnvelope
		resp, err := c.httpc.R().
			SetContext(ctx).
			SetResult(&envelope).
			Get(pageURL)
		if err != nil {
			return scan, findings, fmt.Errorf("failed to retrieve findings for %q: %w", appID, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return scan, findings, fmt.Errorf("http error %d on retrieving findings for %q", resp.StatusCode(), appID)
		}

		if envelope.Response.Scan == nil {
			break
		}
		if scan == nil {
			scan = envelope.Response.Scan
		}
		findings = append(findings, envelope.Response.Findings...)
		c.logger.Debug("retrieved findings page", "app", appID, "count", len(findings), "total", envelope.Response.TotalCount)

		if envelope.NextPage == "" {
			break
		}
		pageURL, err = c.pinHost(envelope.NextPage)
		if err != nil {
			return scan, findings, err
		}
	}

	return scan, findings, nil
}

// ListApps retrieves every app of the organization, following pagination.
func (c *Client) ListApps(ctx context.Context, orgID string) ([]App, error) {
	var apps []App

	pageURL := fmt.Sprintf("%s://%s/api/v4/orgs/%s/apps", c.scheme, c.apiHost, orgID)
	for pageURL != "" {
		var envelope appsEnvelope
		resp, err := c.httpc.R().
			SetContext(ctx).
			SetResult(&envelope).
			Get(pageURL)
		if err != nil {
			return apps, fmt.Errorf("failed to list apps: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return apps, fmt.Errorf("http error %d on listing apps", resp.StatusCode())
		}

		apps = append(apps, envelope.Response...)
		if envelope.NextPage == "" {
			break
		}
		next, err := c.pinHost(envelope.NextPage)
		if err != nil {
			return apps, err
		}
		pageURL = next
	}

	return apps, nil
}

// DeepLink builds the UI link for a finding. Kept here so every consumer
// (console report, PR annotation) renders the same URL shape.
func DeepLink(apiHost, appID, scanID, findingID string) string {
	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(apiHost)
	b.WriteString("/apps/")
	b.WriteString(appID)
	b.WriteString("/vulnerabilities?scan=")
	b.WriteString(scanID)
	b.WriteString("&findingId=")
	b.WriteString(findingID)
	return b.String()
}
