package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/akylbek/payment-system/guide-delivery/internal/interfaces"
)

// ErrMissing means the artifact is absent from storage. Grants stay
// redeemable so the buyer can retry once storage is fixed.
var ErrMissing = errors.New("artifact missing from storage")

type FactoryConfig struct {
	Driver    string
	LocalPath string
	S3Region  string
	S3Bucket  string
	S3Key     string
}

// New picks the artifact source for the configured driver.
func New(ctx context.Context, cfg FactoryConfig) (interfaces.ArtifactSource, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalPath), nil

	case "s3":
		if cfg.S3Region == "" || cfg.S3Bucket == "" || cfg.S3Key == "" {
			return nil, fmt.Errorf("s3 artifact config missing: ARTIFACT_S3_REGION, ARTIFACT_S3_BUCKET, ARTIFACT_S3_KEY required")
		}
		return NewS3(ctx, S3Config{Region: cfg.S3Region, Bucket: cfg.S3Bucket, Key: cfg.S3Key})

	default:
		return nil, fmt.Errorf("unknown ARTIFACT_DRIVER: %s", cfg.Driver)
	}
}
