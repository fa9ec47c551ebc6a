package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navintent/internal/config"
	"github.com/vango-dev/navintent/internal/errors"
)

// configFlags locates the configuration for commands that need one.
type configFlags struct {
	path       string
	s3Region   string
	s3Endpoint string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "Config file, directory or s3://bucket/key (default: nearest navintent.json)")
	cmd.Flags().StringVar(&f.s3Region, "s3-region", "", "AWS region for s3:// configs (default $AWS_REGION)")
	cmd.Flags().StringVar(&f.s3Endpoint, "s3-endpoint", "", "Custom endpoint for S3-compatible stores")
}

// load returns the selected configuration. Without --config it searches the
// working directory upwards and falls back to defaults when nothing is found.
func (f *configFlags) load(ctx context.Context) (*config.Config, error) {
	switch {
	case f.path == "":
		cfg, err := config.LoadFromWorkingDir()
		if errors.HasCode(err, "E141") {
			return config.New(), nil
		}
		return cfg, err

	case config.IsRemote(f.path):
		return config.LoadS3(ctx, config.NewS3Client(f.s3Region, f.s3Endpoint), f.path)

	default:
		if st, err := os.Stat(f.path); err == nil && st.IsDir() {
			return config.Load(f.path)
		}
		return config.LoadFile(f.path)
	}
}
