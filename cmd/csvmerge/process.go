package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"csvmerge/internal/config"
	"csvmerge/internal/engine"
)

type processOptions struct {
	cfgPath   string
	filesFrom string
	output    string
	statsJSON bool
	metrics   metricsOptions
}

func newProcessCmd() *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process -o OUTPUT [--config FILE] FILE...",
		Short: "Run the consolidation pipeline",
		Long: `Run the consolidation pipeline over FILE... and write the result to OUTPUT.

Settings come from --config (JSON, or YAML for .yaml/.yml) on top of the
defaults; any flag given on the command line overrides the file.
Interrupting the run (Ctrl-C) stops it at the next phase boundary without
writing output.

Example:
  csvmerge process -o merged.csv --dedupe-columns id --keep last --sort id a.csv b.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := inputFiles(args, opts.filesFrom)
			if err != nil {
				return err
			}
			return runProcess(cmd, opts, files)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path or database URL")
	f.StringVar(&opts.cfgPath, "config", "", "configuration file (JSON or YAML)")
	f.StringVar(&opts.filesFrom, "files-from", "", "file listing one input path per line, read after FILE...")
	f.BoolVar(&opts.statsJSON, "stats-json", false, "print run statistics as JSON")
	addConfigFlags(f)
	addMetricsFlags(f, &opts.metrics)
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runProcess(cmd *cobra.Command, opts processOptions, files []string) error {
	cfg, err := loadConfig(opts.cfgPath)
	if err != nil {
		return err
	}
	if err := applyConfigFlags(cmd.Flags(), &cfg); err != nil {
		return err
	}
	if err := reportIssues(cmd.ErrOrStderr(), config.Validate(cfg)); err != nil {
		return err
	}

	flush, err := setupMetrics(opts.metrics)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	job := engine.Start(ctx, engine.New(), files, opts.output, cfg)
	for ev := range job.Events() {
		printEvent(out, ev)
	}
	st := job.Wait()

	if opts.statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return err
		}
	} else {
		printSummary(out, st)
	}

	switch {
	case st.Cancelled():
		return fmt.Errorf("run %s cancelled", st.RunID)
	case len(st.Errors) > 0:
		return fmt.Errorf("run %s finished with %d error(s)", st.RunID, len(st.Errors))
	}
	return nil
}

func printEvent(w io.Writer, ev engine.Event) {
	switch ev.Kind {
	case engine.EventLog:
		fmt.Fprintf(w, "%-7s %s\n", ev.Level, ev.Message)
	case engine.EventProgress:
		slog.Debug("progress", "percent", ev.Percent, "status", ev.Status)
	}
}

func printSummary(w io.Writer, st *engine.Stats) {
	fmt.Fprintf(w, "\nrun %s: %s in %s\n", st.RunID, st.Phase, st.Elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(w, "  files processed     %d\n", st.FilesProcessed)
	fmt.Fprintf(w, "  files skipped       %d\n", st.FilesSkipped)
	fmt.Fprintf(w, "  rows read           %d\n", st.TotalRowsRead)
	fmt.Fprintf(w, "  rows filtered       %d\n", st.RowsFiltered)
	fmt.Fprintf(w, "  duplicates removed  %d\n", st.DuplicatesRemoved)
	fmt.Fprintf(w, "  final rows          %d\n", st.FinalRowCount)
	fmt.Fprintf(w, "  unique columns      %d\n", st.UniqueColumns)
	for _, e := range st.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}
