package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"csvmerge/internal/config"
	"csvmerge/internal/datasource/file"
	"csvmerge/internal/engine"
	"csvmerge/internal/parser/csv"
	"csvmerge/internal/probe"
)

func newDiscoverCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "discover FILE...",
		Short: "Print the merged column list of the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			for _, c := range engine.New().DiscoverColumns(cmd.Context(), args, cfg) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "configuration file for input encoding/delimiter overrides")
	return cmd
}

func newProbeCmd() *cobra.Command {
	var (
		cfgPath string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "probe FILE...",
		Short: "Show the detected encoding, delimiter, columns and row count of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			opt := csv.Options{
				TrimSpace: cfg.TrimWhitespace,
				Encoding:  cfg.InputEncoding,
				Delimiter: cfg.InputDelimiterRune(),
			}
			return probe.Render(cmd.OutOrStdout(), probe.Files(cmd.Context(), args, opt), asJSON)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "configuration file for input overrides")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "validate --config FILE",
		Short: "Check a configuration file and report issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := reportIssues(cmd.ErrOrStderr(), config.Validate(cfg)); err != nil {
				return fmt.Errorf("%s: %w", cfgPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid: %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "configuration file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config PATH",
		Short: "Write a configuration file holding the defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// inputFiles returns args followed by the entries of the list file, if any.
func inputFiles(args []string, listPath string) ([]string, error) {
	files := append([]string(nil), args...)
	if listPath != "" {
		listed, err := file.ReadList(listPath)
		if err != nil {
			return nil, fmt.Errorf("files-from: %w", err)
		}
		files = append(files, listed...)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files given")
	}
	return files, nil
}

func loadConfig(path string) (config.ProcessingConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

var errInvalidConfig = errors.New("configuration is invalid")

// reportIssues prints issues one per line and fails if any is an error.
func reportIssues(w io.Writer, issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errInvalidConfig
	}
	return nil
}
