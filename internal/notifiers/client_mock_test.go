package notifiers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahjazly/unified-notifier/pkg/httpx"
)

type mockHTTPClient struct {
	mu       sync.Mutex
	requests []*httpx.Request
	respond  func(req *httpx.Request) (*httpx.Response, error)
}

func (c *mockHTTPClient) Do(_ context.Context, req *httpx.Request) (*httpx.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.respond != nil {
		return c.respond(req)
	}
	return &httpx.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
}

func (c *mockHTTPClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// serviceAccountFixture builds a syntactically valid service-account blob
// around a freshly generated RSA key.
func serviceAccountFixture(t *testing.T, projectID string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	blob, err := json.Marshal(map[string]string{
		"project_id":   projectID,
		"client_email": "svc@" + projectID + ".iam.gserviceaccount.com",
		"private_key":  string(keyPEM),
	})
	require.NoError(t, err)
	return string(blob)
}
