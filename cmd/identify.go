package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/identification"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <image-file>",
	Short: "Identify a person from a probe image",
	Long: `Upload a probe image and search the biometric index for the best
matching enrolled face. Prints the matched identity, or reports that
nobody matched.

Use --key to pass the object key of an image already in the bucket
instead of a local file path.

Example:
  facegate identify probe.jpg
  facegate identify --threshold 90 probe.jpg
  facegate identify --key uploads/probe.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().Float64("threshold", -1, "Similarity threshold 0-100 (defaults to configured threshold)")
	identifyCmd.Flags().Bool("key", false, "Treat the argument as an existing object key, skip upload")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	threshold := mustGetFloat64(cmd, "threshold")
	if threshold < 0 {
		threshold = cfg.Biometric.MatchThreshold
	}
	useKey := mustGetBool(cmd, "key")

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	b, err := setupBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	key := args[0]
	if !useKey {
		if b.images == nil {
			return fmt.Errorf("BUCKETNAME environment variable is required to upload the probe image")
		}
		data, err := os.ReadFile(key)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", key, err)
		}
		probeKey := path.Join("probes", uuid.NewString()+filepath.Ext(key))
		if err := b.images.Upload(ctx, probeKey, data); err != nil {
			return fmt.Errorf("uploading probe image: %w", err)
		}
		key = probeKey
	}

	flow := identification.NewFlow(b.index, b.store, log)
	res, err := flow.Identify(ctx, biometric.ImageRef{Bucket: cfg.Storage.Bucket, Key: key}, threshold)
	if err != nil {
		return fmt.Errorf("identification failed: %w", err)
	}
	if res == nil {
		fmt.Println("No matching face found")
		return nil
	}

	fmt.Printf("Match: %s <%s>\n", res.Attributes.Name, res.Attributes.Email)
	if res.Attributes.Organization != "" {
		fmt.Printf("  Organization: %s\n", res.Attributes.Organization)
	}
	fmt.Printf("  FaceId:     %s\n", res.FaceID)
	fmt.Printf("  Confidence: %.1f\n", res.Confidence)
	return nil
}
