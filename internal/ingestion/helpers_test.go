package ingestion

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "whsec_test"

func newTestServer(t *testing.T, router *Router, sig SignatureConfig) *Server {
	t.Helper()
	return NewServer(ServerConfig{Port: 0, Signature: sig}, router, zap.NewNop())
}

func post(t *testing.T, h http.Handler, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func signed(body []byte) map[string]string {
	return map[string]string{"X-Signature": ComputeSignature(testSecret, body)}
}
