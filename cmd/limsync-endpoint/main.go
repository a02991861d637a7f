package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/limsync/limsync/internal/config"
	"github.com/limsync/limsync/internal/constants"
	"github.com/limsync/limsync/internal/ctxlog"
	"github.com/limsync/limsync/internal/endpoint"
	"github.com/limsync/limsync/internal/paths"
	"github.com/limsync/limsync/internal/reviewdb"
	"github.com/limsync/limsync/internal/terminal"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "limsync-endpoint",
		Short:         "Parse and name limsync endpoints",
		Long:          "Normalizes local paths, ssh:// URLs and user@host:path addresses, and derives the names limsync uses to store per-endpoint state.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("invalid verbose flag: %w", err)
			}
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			cmd.SetContext(ctxlog.WithLogger(ctxOrBackground(cmd), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("home", "", "Home directory for ~ expansion and the review database directory")
	rootCmd.PersistentFlags().Bool("json", false, "Print JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newParseCmd(),
		newValueCmd("label", "Print the human-readable label", endpoint.Endpoint.Label),
		newValueCmd("canonical", "Print the canonical, re-parseable form", endpoint.Endpoint.String),
		newValueCmd("slug", "Print the filesystem-safe slug", endpoint.Endpoint.Slug),
		newValueCmd("state-path", "Print the default state database path", endpoint.Endpoint.DefaultStateDBPath),
		newReviewPathCmd(),
		newReviewInitCmd(),
		newRemoteAddressCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func ctxOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newResolver honors --home, falling back to the current user's home directory.
func newResolver(cmd *cobra.Command) (*paths.Resolver, error) {
	home, err := cmd.Flags().GetString("home")
	if err != nil {
		return nil, fmt.Errorf("invalid home flag: %w", err)
	}
	if home != "" {
		return paths.NewResolverWithHome(home), nil
	}
	return paths.NewResolver()
}

func parseArg(cmd *cobra.Command, arg string) (endpoint.Endpoint, error) {
	resolver, err := newResolver(cmd)
	if err != nil {
		return nil, err
	}
	return endpoint.NewParser(resolver, ctxlog.FromContext(cmd.Context())).Parse(arg)
}

// wantJSON is true for --json, or when stdout is not a terminal and auto is set.
func wantJSON(cmd *cobra.Command, auto bool) (bool, error) {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return false, fmt.Errorf("invalid json flag: %w", err)
	}
	if asJSON {
		return true, nil
	}
	return auto && cmd.OutOrStdout() == os.Stdout && !terminal.IsStdoutTerminal(), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// endpointView is the printable form of a parsed endpoint.
type endpointView struct {
	Kind      endpoint.Kind `json:"kind"`
	User      string        `json:"user,omitempty"`
	Host      string        `json:"host,omitempty"`
	Port      int           `json:"port,omitempty"`
	Root      string        `json:"root"`
	Label     string        `json:"label"`
	Canonical string        `json:"canonical"`
	Slug      string        `json:"slug"`
	StateDB   string        `json:"state_db"`
}

func newEndpointView(e endpoint.Endpoint) endpointView {
	view := endpointView{
		Kind:      e.Kind(),
		Root:      endpoint.Root(e),
		Label:     e.Label(),
		Canonical: e.String(),
		Slug:      e.Slug(),
		StateDB:   e.DefaultStateDBPath(),
	}
	if r, ok := e.(endpoint.Remote); ok {
		view.User = r.User
		view.Host = r.Host
		view.Port = r.Port
	}
	return view
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <endpoint>",
		Short: "Parse an endpoint and show everything derived from it",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	e, err := parseArg(cmd, args[0])
	if err != nil {
		return err
	}

	view := newEndpointView(e)
	asJSON, err := wantJSON(cmd, true)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, view)
	}

	fmt.Fprintf(out, "Kind:       %s\n", view.Kind)
	if view.Kind == endpoint.KindRemote {
		fmt.Fprintf(out, "User:       %s\n", view.User)
		fmt.Fprintf(out, "Host:       %s\n", view.Host)
		fmt.Fprintf(out, "Port:       %d\n", view.Port)
	}
	fmt.Fprintf(out, "Root:       %s\n", view.Root)
	fmt.Fprintf(out, "Label:      %s\n", view.Label)
	fmt.Fprintf(out, "Canonical:  %s\n", view.Canonical)
	fmt.Fprintf(out, "Slug:       %s\n", view.Slug)
	fmt.Fprintf(out, "State DB:   %s\n", view.StateDB)
	return nil
}

// newValueCmd builds a command printing one derived string.
func newValueCmd(use, short string, derive func(endpoint.Endpoint) string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <endpoint>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := parseArg(cmd, args[0])
			if err != nil {
				return err
			}
			asJSON, err := wantJSON(cmd, false)
			if err != nil {
				return err
			}
			value := derive(e)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{use: value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func parsePair(cmd *cobra.Command, args []string) (endpoint.Endpoint, endpoint.Endpoint, error) {
	source, err := parseArg(cmd, args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("source: %w", err)
	}
	destination, err := parseArg(cmd, args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("destination: %w", err)
	}
	return source, destination, nil
}

func newReviewPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review-path <source> <destination>",
		Short: "Print the review database path for an endpoint pair",
		Long:  "Print the review database path for an endpoint pair. The ~/.limsync directory is created if missing.",
		Args:  cobra.ExactArgs(2),
		RunE:  runReviewPath,
	}
}

func runReviewPath(cmd *cobra.Command, args []string) error {
	source, destination, err := parsePair(cmd, args)
	if err != nil {
		return err
	}
	resolver, err := newResolver(cmd)
	if err != nil {
		return err
	}

	dbPath, err := endpoint.ReviewDBPathIn(resolver, source, destination)
	if err != nil {
		return err
	}

	asJSON, err := wantJSON(cmd, false)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"review_db": dbPath})
	}
	fmt.Fprintln(cmd.OutOrStdout(), dbPath)
	return nil
}

func newReviewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review-init <source> <destination>",
		Short: "Create or verify the review database for an endpoint pair",
		Args:  cobra.ExactArgs(2),
		RunE:  runReviewInit,
	}

	cmd.Flags().String("db", "", "Review database path (defaults to the derived path)")

	return cmd
}

func runReviewInit(cmd *cobra.Command, args []string) error {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return fmt.Errorf("invalid db flag: %w", err)
	}

	source, destination, err := parsePair(cmd, args)
	if err != nil {
		return err
	}
	resolver, err := newResolver(cmd)
	if err != nil {
		return err
	}

	db, err := reviewdb.Open(cmd.Context(), source, destination, reviewdb.Options{Path: dbPath, Resolver: resolver})
	if err != nil {
		return err
	}
	defer db.Close()

	asJSON, err := wantJSON(cmd, false)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"review_db":   db.Path(),
			"source":      db.Source(),
			"destination": db.Destination(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Review database ready: %s\n", db.Path())
	return nil
}

func newRemoteAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote-address",
		Short: "Print the address of an older-style remote configuration",
		Args:  cobra.NoArgs,
		RunE:  runRemoteAddress,
	}

	cmd.Flags().String("host", "", "Remote host")
	cmd.Flags().String("user", "", "Remote user")
	cmd.Flags().Int("port", constants.DefaultRemotePort, "Remote SSH port")
	cmd.Flags().String("root", constants.DefaultRemoteRoot, "Remote root")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRemoteAddress(cmd *cobra.Command, args []string) error {
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("invalid host flag: %w", err)
	}
	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return fmt.Errorf("invalid user flag: %w", err)
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("invalid port flag: %w", err)
	}
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return fmt.Errorf("invalid root flag: %w", err)
	}

	cfg := config.NewRemoteConfig(host, user)
	cfg.Port = port
	cfg.Root = root

	asJSON, err := wantJSON(cmd, false)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"config":    cfg,
			"address":   cfg.Address(),
			"canonical": endpoint.FromRemoteConfig(cfg).String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfg.Address())
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "limsync-endpoint version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
