package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	biomemory "github.com/facegate/facegate/internal/biometric/memory"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/enrollment"
	"github.com/facegate/facegate/internal/identification"
	idmemory "github.com/facegate/facegate/internal/identity/memory"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	cfg := &config.Config{
		Biometric: config.BiometricConfig{
			Backend:        config.BackendMemory,
			MatchThreshold: 80,
		},
		Identity: config.IdentityConfig{
			Backend: config.BackendMemory,
		},
		Storage: config.StorageConfig{
			Bucket: "test-bucket",
		},
	}
	cfg.Defaults.Limits.MaxImagesPerEnrollment = 10
	return cfg
}

// testBackends creates in-memory biometric and identity backends wired
// into a coordinator and an identification flow.
func testBackends() (*biomemory.Index, *idmemory.Store, *enrollment.Coordinator, *identification.Flow) {
	index := biomemory.NewIndex()
	store := idmemory.NewStore()
	coordinator := enrollment.NewCoordinator(index, store, nil, 10)
	flow := identification.NewFlow(index, store, nil)
	return index, store, coordinator, flow
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
