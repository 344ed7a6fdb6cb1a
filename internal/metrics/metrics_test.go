package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument(t *testing.T) {
	Register()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Instrument())
	router.GET("/api/assets/:did", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/assets/:did", "200"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assets/did:test:abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/assets/:did", "200"))
	assert.Equal(t, before+1, after)

	// The route template, not the raw DID, is the path label
	assert.Zero(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/assets/did:test:abc", "200")))
}
