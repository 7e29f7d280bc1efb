package ngsast

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngsast/bestfix/internal/config"
)

func testToken(claims string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(claims))
	return header + "." + payload + ".sig"
}

func TestExtractOrgID(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{
			name:  "orgID claim",
			token: testToken(`{"orgID":"11111111-2222-3333-4444-555555555555"}`),
			want:  "11111111-2222-3333-4444-555555555555",
		},
		{
			name:  "org_id claim",
			token: testToken(`{"org_id":"org-42"}`),
			want:  "org-42",
		},
		{
			name:  "no org claim",
			token: testToken(`{"sub":"user"}`),
			want:  "",
		},
		{
			name:  "not a jwt",
			token: "garbage",
			want:  "",
		},
		{
			name:  "empty token",
			token: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractOrgID(tt.token))
		})
	}
}

func TestFindingsURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.NGSAST.APIHost = "sast.example.com"
	c := NewClient(cfg, hclog.NewNullLogger(), "token")

	u := c.findingsURL("org1", "app1", "", []string{"critical", "high"})
	assert.Contains(t, u, "https://sast.example.com/api/v4/orgs/org1/apps/app1/findings")
	assert.Contains(t, u, "include_dataflows=true")
	assert.Contains(t, u, "finding_tags="+url.QueryEscape("cvss_31_severity_rating=critical"))
	assert.Contains(t, u, "finding_tags="+url.QueryEscape("cvss_31_severity_rating=high"))
	assert.NotContains(t, u, "version=")

	u = c.findingsURL("org1", "app1", "v1.2", nil)
	assert.Contains(t, u, "version=v1.2")
}

func TestPinHost(t *testing.T) {
	cfg := config.NewConfig()
	cfg.NGSAST.APIHost = "sast.internal.example.com"
	c := NewClient(cfg, hclog.NewNullLogger(), "token")

	pinned, err := c.pinHost("https://app.shiftleft.io/api/v4/orgs/o/apps/a/findings?page=2")
	require.NoError(t, err)
	assert.Equal(t, "https://sast.internal.example.com/api/v4/orgs/o/apps/a/findings?page=2", pinned)
}

func TestFindingsWithScanPagination(t *testing.T) {
	var host string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/orgs/o/apps/a/findings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"response":{"total_count":3,"scan":{"id":2,"language":"java"},"findings":[{"id":"f3","type":"vuln","category":"SQL Injection"}]}}`)
			return
		}
		fmt.Fprintf(w, `{"response":{"total_count":3,"scan":{"id":1,"app":"a","language":"java"},"findings":[{"id":"f1","type":"vuln","category":"SQL Injection"},{"id":"f2","type":"vuln","category":"SSRF"}]},"next_page":"http://%s/api/v4/orgs/o/apps/a/findings?page=2"}`, host)
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	host = server.Listener.Addr().String()

	cfg := config.NewConfig()
	cfg.NGSAST.APIHost = host
	c := NewClient(cfg, hclog.NewNullLogger(), "token")
	// The test server is plain http.
	c.scheme = "http"

	scan, findings, err := c.FindingsWithScan(context.Background(), "o", "a", "", nil)
	require.NoError(t, err)
	require.NotNil(t, scan)
	// The scan from the first page wins.
	assert.Equal(t, "1", scan.ID.String())
	require.Len(t, findings, 3)
	assert.Equal(t, "f1", findings[0].ID)
	assert.Equal(t, "f3", findings[2].ID)
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("app.shiftleft.io", "my-app", "42", "f-1")
	assert.Equal(t, "https://app.shiftleft.io/apps/my-app/vulnerabilities?scan=42&findingId=f-1", link)
}
