package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Biometric.Backend != BackendRekognition {
		t.Errorf("expected default biometric backend %q, got %q", BackendRekognition, cfg.Biometric.Backend)
	}
	if cfg.Identity.Backend != BackendDynamo {
		t.Errorf("expected default identity backend %q, got %q", BackendDynamo, cfg.Identity.Backend)
	}
	if cfg.Defaults.Limits.MatchThreshold != 80 {
		t.Errorf("expected embedded default threshold 80, got %v", cfg.Defaults.Limits.MatchThreshold)
	}
	if cfg.Defaults.Limits.MaxImagesPerEnrollment <= 0 {
		t.Error("expected a positive max images limit from defaults.yaml")
	}
	if cfg.Defaults.Timeouts.RequestSeconds <= 0 {
		t.Error("expected a positive request timeout from defaults.yaml")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BIOMETRIC_BACKEND", "local")
	t.Setenv("IDENTITY_BACKEND", "postgres")
	t.Setenv("REKOGNITIONCOLLECTION", "people")
	t.Setenv("DYNAMODBTABLENAME", "identities")
	t.Setenv("BUCKETNAME", "faces-bucket")
	t.Setenv("REKOGNITIONFACEMATCHTHRESHOLD", "92.5")

	cfg := Load()

	if cfg.Biometric.Backend != BackendLocal {
		t.Errorf("expected backend local, got %q", cfg.Biometric.Backend)
	}
	if cfg.Identity.Backend != BackendPostgres {
		t.Errorf("expected backend postgres, got %q", cfg.Identity.Backend)
	}
	if cfg.Biometric.CollectionID != "people" {
		t.Errorf("unexpected collection: %q", cfg.Biometric.CollectionID)
	}
	if cfg.Identity.Table != "identities" {
		t.Errorf("unexpected table: %q", cfg.Identity.Table)
	}
	if cfg.Storage.Bucket != "faces-bucket" {
		t.Errorf("unexpected bucket: %q", cfg.Storage.Bucket)
	}
	if cfg.Biometric.MatchThreshold != 92.5 {
		t.Errorf("expected threshold 92.5, got %v", cfg.Biometric.MatchThreshold)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "not-a-number")
	cfg := Load()
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected fallback 25, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestEnvFloatInvalidFallsBack(t *testing.T) {
	t.Setenv("REKOGNITIONFACEMATCHTHRESHOLD", "very high")
	cfg := Load()
	if cfg.Biometric.MatchThreshold != 80 {
		t.Errorf("expected fallback 80, got %v", cfg.Biometric.MatchThreshold)
	}
}
