package cmd

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsrekognition "github.com/aws/aws-sdk-go-v2/service/rekognition"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/biometric"
	biolocal "github.com/facegate/facegate/internal/biometric/local"
	biomemory "github.com/facegate/facegate/internal/biometric/memory"
	biorekognition "github.com/facegate/facegate/internal/biometric/rekognition"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/identity"
	iddynamo "github.com/facegate/facegate/internal/identity/dynamo"
	idmemory "github.com/facegate/facegate/internal/identity/memory"
	idpostgres "github.com/facegate/facegate/internal/identity/postgres"
	"github.com/facegate/facegate/internal/imagestore"
)

// newLogger builds the process logger. LOG_FORMAT=console switches
// to a human-readable development layout.
func newLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_FORMAT") == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// backends holds the wired storage and biometric dependencies of a
// command, plus a cleanup to run at exit.
type backends struct {
	index  biometric.Index
	store  identity.Store
	images *imagestore.Store
	close  func()
}

// setupBackends constructs the biometric index, the identity store and
// the image store selected by configuration. AWS clients are created
// only when a backend or the image bucket needs them.
func setupBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{close: func() {}}

	needsAWS := cfg.Biometric.Backend == config.BackendRekognition ||
		cfg.Identity.Backend == config.BackendDynamo ||
		cfg.Storage.Bucket != ""

	if needsAWS {
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Storage.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Storage.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}

		s3Client := awss3.NewFromConfig(awsCfg)
		b.images = imagestore.NewStore(s3Client, manager.NewUploader(s3Client), cfg.Storage.Bucket)

		if cfg.Biometric.Backend == config.BackendRekognition {
			if cfg.Biometric.CollectionID == "" {
				return nil, fmt.Errorf("REKOGNITIONCOLLECTION environment variable is required")
			}
			b.index = biorekognition.NewIndex(awsrekognition.NewFromConfig(awsCfg), cfg.Biometric.CollectionID)
		}
		if cfg.Identity.Backend == config.BackendDynamo {
			if cfg.Identity.Table == "" {
				return nil, fmt.Errorf("DYNAMODBTABLENAME environment variable is required")
			}
			b.store = iddynamo.NewStore(awsdynamodb.NewFromConfig(awsCfg), cfg.Identity.Table)
		}
	}

	switch cfg.Biometric.Backend {
	case config.BackendRekognition:
		// wired above
	case config.BackendLocal:
		if cfg.Embedding.URL == "" {
			return nil, fmt.Errorf("EMBEDDING_URL environment variable is required for the local backend")
		}
		if b.images == nil {
			return nil, fmt.Errorf("BUCKETNAME environment variable is required for the local backend")
		}
		b.index = biolocal.NewIndex(b.images, biolocal.NewEmbeddingClient(cfg.Embedding.URL))
	case config.BackendMemory:
		b.index = biomemory.NewIndex()
	default:
		return nil, fmt.Errorf("unknown biometric backend %q", cfg.Biometric.Backend)
	}

	switch cfg.Identity.Backend {
	case config.BackendDynamo:
		// wired above
	case config.BackendPostgres:
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres backend")
		}
		pool, err := idpostgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrating identity schema: %w", err)
		}
		b.store = idpostgres.NewStore(pool)
		b.close = func() {
			if err := pool.Close(); err != nil {
				log.Warn("closing PostgreSQL pool", zap.Error(err))
			}
		}
	case config.BackendMemory:
		b.store = idmemory.NewStore()
	default:
		return nil, fmt.Errorf("unknown identity backend %q", cfg.Identity.Backend)
	}

	log.Info("backends ready",
		zap.String("biometric", cfg.Biometric.Backend),
		zap.String("identity", cfg.Identity.Backend),
		zap.String("bucket", cfg.Storage.Bucket))

	return b, nil
}
