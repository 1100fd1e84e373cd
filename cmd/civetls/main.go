// Command civetls runs the civetls language-service core: a virtual-file
// host bridging an editor's document store to a TGT-aware language
// service, plus small standalone utilities for inspecting source maps.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"go.lsp.dev/jsonrpc2"

	"github.com/MadAppGang/civetls/pkg/config"
	"github.com/MadAppGang/civetls/pkg/errors"
	"github.com/MadAppGang/civetls/pkg/host"
	"github.com/MadAppGang/civetls/pkg/logging"
	"github.com/MadAppGang/civetls/pkg/refcompile"
	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/remap"
	"github.com/MadAppGang/civetls/pkg/transport"
	"github.com/MadAppGang/civetls/pkg/ui"
)

const version = "0.1.0"

func main() {
	root := rootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "civetls",
		Short:         "Language-service core for a Civet-to-TypeScript toolchain",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		ui.PrintHelp(version)
	})
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.AddCommand(serveCmd(), remapCmd(), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.PrintVersionInfo(version)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var watchDirs []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the virtual-file host over stdio JSON-RPC2",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(watchDirs)
		},
	}
	cmd.Flags().StringSliceVar(&watchDirs, "watch", nil, "directories to watch for external SRC file changes")
	return cmd
}

func runServe(watchDirs []string) error {
	out := ui.NewHostOutput()
	out.PrintHeader(version)

	cfg, err := config.Load(nil)
	if err != nil {
		out.PrintError(err.Error())
		return err
	}

	logLevel := os.Getenv("CIVETLS_LOG")
	logger, err := logging.New(logLevel)
	if err != nil {
		out.PrintError(err.Error())
		return err
	}

	transpilers := make([]host.Transpiler, 0, len(cfg.Transpilers))
	for _, t := range cfg.Transpilers {
		transpilers = append(transpilers, host.Transpiler{
			SourceExt: t.SourceExt,
			TargetExt: t.TargetExt,
			Compile:   refcompile.Compile,
		})
	}

	pathMappings := make([]host.PathMapping, 0, len(cfg.Resolution.PathMappings))
	for _, pm := range cfg.Resolution.PathMappings {
		pathMappings = append(pathMappings, host.PathMapping{
			Pattern:      pm.Pattern,
			Replacements: pm.Replacements,
		})
	}

	h := host.New(transpilers, host.ResolutionConfig{
		BaseURL:       cfg.Resolution.BaseURL,
		PathsBasePath: cfg.Resolution.PathsBasePath,
		PathMappings:  pathMappings,
	})

	var watcher *host.Watcher
	if len(watchDirs) > 0 {
		watcher, err = host.NewWatcher(h, logger)
		if err != nil {
			out.PrintError(err.Error())
			return err
		}
		for _, dir := range watchDirs {
			if err := watcher.Add(dir); err != nil {
				out.PrintError(fmt.Sprintf("watching %s: %v", dir, err))
				return err
			}
		}
		go watcher.Run()
		defer watcher.Close()
	}

	server := transport.NewServer(transport.ServerConfig{Logger: logger, Host: h})

	stream := jsonrpc2.NewStream(&stdinoutCloser{logger: logger})
	conn := jsonrpc2.NewConn(stream)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	server.SetConn(conn, ctx)
	conn.Go(ctx, server.Handler())

	out.PrintServeStart(len(h.GetScriptFileNames()))
	logger.Infof("civetls: serving on stdio")

	<-conn.Done()

	out.PrintSummary(ctx.Err() == context.Canceled || ctx.Err() == nil, "")
	return nil
}

// stdinoutCloser adapts stdin/stdout to an io.ReadWriteCloser for the
// JSON-RPC2 stream, logging each close.
type stdinoutCloser struct {
	logger logging.Logger
}

func (s *stdinoutCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (s *stdinoutCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (s *stdinoutCloser) Close() error {
	s.logger.Infof("civetls: stdio connection closed")
	return os.Stdin.Close()
}

func remapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remap <map.json> <line> <column>",
		Short: "Resolve a generated (TGT) position back to its SRC position through a source map",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemap(args[0], args[1], args[2])
		},
	}
}

func runRemap(mapPath, lineArg, colArg string) error {
	line, err := strconv.Atoi(lineArg)
	if err != nil {
		return fmt.Errorf("remap: invalid line %q: %w", lineArg, err)
	}
	col, err := strconv.Atoi(colArg)
	if err != nil {
		return fmt.Errorf("remap: invalid column %q: %w", colArg, err)
	}

	data, err := os.ReadFile(mapPath)
	if err != nil {
		ee := errors.NewEnhancedErrorAt(mapPath, 0, 0, fmt.Sprintf("cannot read map file: %v", err))
		fmt.Fprintln(os.Stderr, ee.Format())
		return err
	}

	var doc sm.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		ee := errors.NewEnhancedErrorAt(mapPath, 0, 0, fmt.Sprintf("malformed source map: %v", err))
		fmt.Fprintln(os.Stderr, ee.Format())
		return err
	}

	parsed, err := remap.ParseWithLines(doc)
	if err != nil {
		ee := errors.NewEnhancedErrorAt(mapPath, 0, 0, fmt.Sprintf("malformed mappings: %v", err))
		fmt.Fprintln(os.Stderr, ee.Format())
		return err
	}

	pos, ok := remap.RemapPosition(line, col, parsed.Lines)
	if !ok {
		srcFile := mapPath
		if len(doc.Sources) > 0 {
			srcFile = doc.Sources[0]
		}
		ee := errors.NewEnhancedErrorAt(srcFile, line+1, col,
			fmt.Sprintf("no exact mapping anchor at generated position %d:%d", line, col))
		fmt.Fprintln(os.Stderr, ee.Format())
		return fmt.Errorf("remap: unmapped position %d:%d", line, col)
	}

	fmt.Printf("%d:%d\n", pos.Line, pos.Column)
	return nil
}
