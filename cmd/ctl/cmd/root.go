package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/exrchan/pkg/logging"
	"github.com/spf13/cobra"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logFile io.Closer
	cmd := &cobra.Command{
		Use:   "exrctl",
		Short: "a CLI to inspect, decode and synthesize OpenEXR channel layers",
		Long:  "exrctl reads selected channels out of single part scanline OpenEXR files and writes test layers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			logPath, _ := cmd.Flags().GetString("log-file")

			// Parse log level
			var level slog.Level
			levelErr := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if levelErr != nil {
				level = slog.LevelInfo
			}

			var out io.Writer = os.Stderr
			if logPath != "" {
				f := logging.RotatingFile(logPath, 10, 3)
				out, logFile = f, f
			}
			switch logFormat {
			case "json":
				slog.SetDefault(logging.Logger(out, true, level))
			case "text", "":
				slog.SetDefault(logging.Logger(out, false, level))
			default:
				return fmt.Errorf("unknown log format %q", logFormat)
			}

			if levelErr != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", levelErr)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewInspectCmd(ctx),
		NewExtractCmd(ctx),
		NewSynthCmd(ctx),
		NewPreviewCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-format", "text", "Log format (text|json)")
	pf.String("log-file", "", "Rotated log file, stderr when empty")
	return cmd
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
