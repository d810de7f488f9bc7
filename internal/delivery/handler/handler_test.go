package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"advertisement-service/internal/delivery/router"
	"advertisement-service/internal/domain"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/repository"
	"advertisement-service/internal/service"
	"advertisement-service/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prometheus collectors register against the global registry, so they are
// created once for the whole package.
var (
	handlerMetrics = metrics.NewHandlerMetrics()
	serviceMetrics = metrics.NewServiceMetrics()
)

type violationsResponse struct {
	Error      string `json:"error"`
	Violations []struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	} `json:"violations"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	loggers, err := logger.SetupLogger("error")
	require.NoError(t, err)

	repo := repository.NewMemoryAdvertisementRepository()
	svc := service.NewAdvertisementService(repo, serviceMetrics)

	r := chi.NewRouter()
	router.SetupAdvertisementRoutes(r, svc, loggers, handlerMetrics)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func createAd(t *testing.T, server *httptest.Server, body string) domain.Advertisement {
	t.Helper()

	resp, err := http.Post(server.URL+"/advertisement", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ad domain.Advertisement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ad))
	return ad
}

func doRequest(t *testing.T, method, url string, body string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Advertisement Service is running", body["message"])
}

func TestCreateAd_Created(t *testing.T) {
	server := newTestServer(t)

	ad := createAd(t, server, `{"title":"Bike","description":"red one","price":10,"author":"Al"}`)

	assert.Equal(t, int64(1), ad.ID)
	assert.Equal(t, "Bike", ad.Title)
	assert.False(t, ad.CreatedAt.IsZero())
}

func TestCreateAd_IgnoresClientSuppliedIDAndTimestamp(t *testing.T) {
	server := newTestServer(t)

	ad := createAd(t, server, `{"id":99,"created_at":"2001-01-01T00:00:00Z","title":"Bike","price":10,"author":"Al"}`)

	assert.Equal(t, int64(1), ad.ID)
	assert.NotEqual(t, "2001-01-01T00:00:00Z", ad.CreatedAt.Format("2006-01-02T15:04:05Z"))
}

func TestCreateAd_ValidationViolations(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/advertisement", `{"title":"","price":0,"author":"Al"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body violationsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validation failed", body.Error)
	require.Len(t, body.Violations, 2)
	assert.Equal(t, "title", body.Violations[0].Field)
	assert.Equal(t, "price", body.Violations[1].Field)
}

func TestCreateAd_MalformedBody(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/advertisement", `{not json`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAdByID(t *testing.T) {
	server := newTestServer(t)

	created := createAd(t, server, `{"title":"Bike","price":10,"author":"Al"}`)

	resp, err := http.Get(fmt.Sprintf("%s/advertisement/%d", server.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ad domain.Advertisement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ad))
	assert.Equal(t, created.ID, ad.ID)
	assert.Equal(t, "Bike", ad.Title)
}

func TestGetAdByID_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/advertisement/42")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetAdByID_BadID(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/advertisement/abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateAd_Partial(t *testing.T) {
	server := newTestServer(t)

	created := createAd(t, server, `{"title":"Bike","price":10,"author":"Al"}`)

	resp := doRequest(t, http.MethodPatch, fmt.Sprintf("%s/advertisement/%d", server.URL, created.ID), `{"price":20}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ad domain.Advertisement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ad))
	assert.Equal(t, "Bike", ad.Title)
	assert.Equal(t, float64(20), ad.Price)
	assert.Equal(t, created.CreatedAt, ad.CreatedAt)
}

func TestUpdateAd_InvalidSuppliedField(t *testing.T) {
	server := newTestServer(t)

	created := createAd(t, server, `{"title":"Bike","price":10,"author":"Al"}`)

	resp := doRequest(t, http.MethodPatch, fmt.Sprintf("%s/advertisement/%d", server.URL, created.ID), `{"price":0}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body violationsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Violations, 1)
	assert.Equal(t, "price", body.Violations[0].Field)
}

func TestUpdateAd_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, http.MethodPatch, server.URL+"/advertisement/42", `{"price":20}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAd(t *testing.T) {
	server := newTestServer(t)

	created := createAd(t, server, `{"title":"Bike","price":10,"author":"Al"}`)
	url := fmt.Sprintf("%s/advertisement/%d", server.URL, created.ID)

	resp := doRequest(t, http.MethodDelete, url, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "deleted", body["status"])

	again := doRequest(t, http.MethodDelete, url, "")
	defer again.Body.Close()
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestSearchAds_Conjunction(t *testing.T) {
	server := newTestServer(t)

	createAd(t, server, `{"title":"Red Bike","price":50,"author":"Al"}`)
	createAd(t, server, `{"title":"Red Car","price":500,"author":"Al"}`)

	resp, err := http.Get(server.URL + "/advertisement?title=Red&max_price=100")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ads []domain.Advertisement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ads))
	require.Len(t, ads, 1)
	assert.Equal(t, "Red Bike", ads[0].Title)
}

func TestSearchAds_EmptyResultIsEmptyArray(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/advertisement?min_price=100&max_price=10")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ads []domain.Advertisement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ads))
	assert.NotNil(t, ads)
	assert.Empty(t, ads)
}

func TestSearchAds_BadParams(t *testing.T) {
	server := newTestServer(t)

	for _, query := range []string{
		"?limit=abc",
		"?limit=0",
		"?limit=1001",
		"?offset=-1",
		"?price=abc",
		"?min_price=-5",
	} {
		resp, err := http.Get(server.URL + "/advertisement" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "query %s", query)
	}
}

func TestSearchAds_DefaultPagination(t *testing.T) {
	server := newTestServer(t)

	for i := 0; i < 3; i++ {
		createAd(t, server, `{"title":"Bike","price":10,"author":"Al"}`)
	}

	resp, err := http.Get(server.URL + "/advertisement")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ads []domain.Advertisement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ads))
	assert.Len(t, ads, 3)
}

func TestSearchAds_ExplicitPagination(t *testing.T) {
	server := newTestServer(t)

	for i := 0; i < 5; i++ {
		createAd(t, server, `{"title":"Bike","price":10,"author":"Al"}`)
	}

	resp, err := http.Get(server.URL + "/advertisement?limit=2&offset=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ads []domain.Advertisement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ads))
	require.Len(t, ads, 2)
	assert.Equal(t, int64(3), ads[0].ID)
	assert.Equal(t, int64(4), ads[1].ID)
}
