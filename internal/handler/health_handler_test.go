package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chart-registry/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHealth_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	Health(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertHeader(t, w, "Content-Type", "application/json")

	var response map[string]string
	err := json.NewDecoder(w.Body).Decode(&response)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, response["status"], "ok")
}

func TestReady_AllHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	testutil.AssertNoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rdb.Close()

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()

	Ready(db, rdb, nil)(w, req)

	result := testutil.AssertJSONResponse(t, w, http.StatusOK)
	testutil.AssertEqual(t, result["status"].(string), "ready")

	checks := result["checks"].(map[string]interface{})
	if _, ok := checks["rabbitmq"]; ok {
		t.Error("rabbitmq check should be absent when no publisher is configured")
	}
}

func TestReady_DatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	testutil.AssertNoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rdb.Close()

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()

	Ready(db, rdb, nil)(w, req)

	result := testutil.AssertJSONResponse(t, w, http.StatusServiceUnavailable)
	testutil.AssertEqual(t, result["status"].(string), "not_ready")
}

func TestReady_SessionStoreDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	testutil.AssertNoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rdb.Close()
	m.Close()

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()

	Ready(db, rdb, nil)(w, req)

	result := testutil.AssertJSONResponse(t, w, http.StatusServiceUnavailable)
	testutil.AssertEqual(t, result["status"].(string), "not_ready")

	checks := result["checks"].(map[string]interface{})
	store := checks["session_store"].(map[string]interface{})
	testutil.AssertEqual(t, store["status"].(string), "down")
}
