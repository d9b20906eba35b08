package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/campaigns/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/campaigns/1", "/campaigns/2", "/campaigns/missing"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("GET", "/campaigns/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("GET", "/campaigns/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIErrorsTotal.WithLabelValues("not_found")))
}

func TestCategorizeStatus(t *testing.T) {
	cases := map[int]string{
		500: "server_error",
		502: "server_error",
		401: "auth_error",
		403: "auth_error",
		404: "not_found",
		400: "bad_request",
		409: "client_error",
	}
	for status, want := range cases {
		assert.Equal(t, want, categorizeStatus(status), status)
	}
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.ApprovalsTotal.WithLabelValues("approved").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `crowdfund_approvals_total{outcome="approved"} 1`))
}
