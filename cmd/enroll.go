package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/enrollment"
	"github.com/facegate/facegate/internal/identity"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <image-file> [image-file...]",
	Short: "Enroll a person from one or more face images",
	Long: `Upload face images and enroll them under one identity.

Each file is uploaded to the configured bucket, indexed in the biometric
collection and linked to the given identity attributes. If any image
fails, the already indexed faces and recorded attributes are rolled
back so nothing is left half enrolled.

Use --keys to pass object keys of images already in the bucket instead
of local file paths.

Example:
  facegate enroll --name "Jane Doe" --email jane@example.com photos/jane1.jpg photos/jane2.jpg
  facegate enroll --keys --name "Jane Doe" --email jane@example.com uploads/jane1.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Person's name (required)")
	enrollCmd.Flags().String("email", "", "Person's email (required)")
	enrollCmd.Flags().String("organization", "", "Person's organization")
	enrollCmd.Flags().String("key-prefix", "enrollments/", "Object key prefix for uploaded images")
	enrollCmd.Flags().Bool("keys", false, "Treat arguments as existing object keys, skip upload")

	enrollCmd.MarkFlagRequired("name")
	enrollCmd.MarkFlagRequired("email")
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	supported := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".bmp":  true,
	}
	return supported[ext]
}

// uploadImages pushes local files to the bucket and returns their object keys.
func uploadImages(ctx context.Context, b *backends, filePaths []string, keyPrefix string) ([]string, error) {
	bar := progressbar.NewOptions(len(filePaths),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	keys := make([]string, 0, len(filePaths))
	for _, filePath := range filePaths {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
		}

		key := path.Join(keyPrefix, filepath.Base(filePath))
		if err := b.images.Upload(ctx, key, data); err != nil {
			return nil, fmt.Errorf("uploading %s: %w", filePath, err)
		}
		keys = append(keys, key)
		bar.Add(1)
	}
	fmt.Println()
	return keys, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	name := mustGetString(cmd, "name")
	email := mustGetString(cmd, "email")
	organization := mustGetString(cmd, "organization")
	keyPrefix := mustGetString(cmd, "key-prefix")
	useKeys := mustGetBool(cmd, "keys")

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

	var keys []string
	if useKeys {
		keys = args
	} else {
		for _, filePath := range args {
			if !isImageFile(filePath) {
				return fmt.Errorf("%s is not a supported image file", filePath)
			}
		}
		if b.images == nil {
			return fmt.Errorf("BUCKETNAME environment variable is required to upload images")
		}
		keys, err = uploadImages(ctx, b, args, keyPrefix)
		if err != nil {
			return err
		}
	}

	images := make([]biometric.ImageRef, len(keys))
	for i, key := range keys {
		images[i] = biometric.ImageRef{Bucket: cfg.Storage.Bucket, Key: key}
	}

	coordinator := enrollment.NewCoordinator(b.index, b.store, log, cfg.Defaults.Limits.MaxImagesPerEnrollment)
	err = coordinator.Enroll(ctx, enrollment.Request{
		Images: images,
		Attributes: identity.Attributes{
			Name:         name,
			Email:        email,
			Organization: organization,
		},
	})
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %s with %d image(s)\n", name, len(images))
	return nil
}
