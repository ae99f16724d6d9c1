package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/controlstore/internal/config"
	"github.com/vango-dev/controlstore/internal/errors"
	"github.com/vango-dev/controlstore/pkg/persist"
	"github.com/vango-dev/controlstore/pkg/scenario"
)

type snapshotFlags struct {
	id string
}

func snapshotCmd(global *globalFlags) *cobra.Command {
	flags := &snapshotFlags{}

	cmd := &cobra.Command{
		Use:   "snapshot <scenario.yaml>",
		Short: "Replay a scenario and save the final state",
		Long: `Replay a scenario and save the final store state as a snapshot.

The snapshot document is printed to stdout and written to the backend
configured in controlstore.json. With the s3 backend, credentials are
read from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.

Examples:
  controlstore snapshot dialog.yaml
  controlstore snapshot --id dialog-42 dialog.yaml > dialog.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), cmd.OutOrStdout(), global, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.id, "id", "", "Snapshot ID (default: the store name)")

	return cmd
}

func runSnapshot(ctx context.Context, out io.Writer, global *globalFlags, flags *snapshotFlags, file string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	st := newStack(cfg)

	sc, err := scenario.ParseFile(file)
	if err != nil {
		return err
	}
	res, err := scenario.Run(ctx, sc,
		scenario.WithStoreOptions(st.storeOptions()...),
		scenario.WithReporter(st.reporter(nil)),
		scenario.WithTracer(st.tracer),
	)
	if err != nil {
		return err
	}

	id := flags.id
	if id == "" {
		id = sc.Store.Name
	}
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	codec := persist.WithTransient(cfg.Persist.Transient...)
	data, err := persist.Encode(res.Store.Snapshot(), codec)
	if err != nil {
		return err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	snapshots := persist.NewSnapshotter(backend, persist.WithCodecOptions(codec))
	if err := snapshots.Save(ctx, id, res.Store); err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if cfg.Persist.Backend == config.BackendS3 {
		success("Saved %s to s3://%s/%s%s.json", id, cfg.Persist.Bucket, cfg.Persist.Prefix, id)
	}
	return nil
}

// openBackend returns the snapshot backend selected by cfg.
func openBackend(cfg *config.Config) (persist.Backend, error) {
	switch cfg.Persist.Backend {
	case "", config.BackendMemory:
		return persist.NewMemoryBackend(), nil
	case config.BackendS3:
		return persist.NewS3Backend(newS3Client(cfg.Persist), cfg.Persist.Bucket, cfg.Persist.Prefix), nil
	}
	return nil, errors.New("E121").WithDetail("Unknown persist backend " + cfg.Persist.Backend)
}

func newS3Client(p config.PersistConfig) *s3.Client {
	opts := s3.Options{
		Region:      p.Region,
		Credentials: aws.NewCredentialsCache(envCredentials()),
	}
	if p.Endpoint != "" {
		opts.BaseEndpoint = aws.String(p.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// envCredentials reads static AWS credentials from the environment.
func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "EnvironmentVariables",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, errors.New("E162").
				WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return creds, nil
	})
}
