package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochronus/gofileup/internal/app"
	"github.com/ochronus/gofileup/internal/config"
	"github.com/ochronus/gofileup/internal/http"
	"github.com/ochronus/gofileup/internal/upload"
	"github.com/ochronus/gofileup/internal/utils"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	// Get default config path
	defaultConfigPath, err := config.DefaultConfigPath()
	if err != nil {
		defaultConfigPath = "./config.toml"
	}

	// Root command
	rootCmd := &cobra.Command{
		Use:           "gofileup",
		Short:         "Upload files and folders to Gofile",
		Long:          "Uploads a local file, or a folder zipped into a single archive, to Gofile and prints the download page.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Upload command
	uploadCmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}
	uploadCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")

	// Serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP server that triggers uploads",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")

	// Generate-config command
	generateConfigCmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.GenerateConfig(configPath)
		},
	}
	generateConfigCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gofileup version %s\n", version)
		},
	}

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateConfigCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildContainer loads and validates the configuration, then wires dependencies
func buildContainer() (*app.Container, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	container, err := app.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", err)
	}

	return container, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := buildContainer()
	if err != nil {
		return err
	}

	uploader := container.Uploader.Cancellable(upload.ContextCanceller(ctx))
	result, err := uploader.Upload(ctx, args[0])
	if err != nil {
		return err
	}

	if result.Cancelled() {
		container.Logger.Warnf("%s: upload cancelled before transfer", result)
	}

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := buildContainer()
	if err != nil {
		return err
	}

	container.Logger.Infof("Starting gofileup, version %s", version)

	server := http.NewServer(container)
	return server.StartWithContext(ctx)
}
