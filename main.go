package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"uichat/internal/api"
	"uichat/internal/config"
	"uichat/internal/display"
	"uichat/internal/render"
	"uichat/internal/server"
	"uichat/internal/tui"
	"uichat/internal/uitag"
)

const version = "0.1.0"

var (
	activeProfile string
	envFile       string
	debugMode     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "uichat",
		Short: "Terminal chat client with inline images, videos, links and quizzes",
		Long: "uichat streams replies from a chat server and renders the UI tags inside them\n" +
			"([image], [video], [link], [quiz]) as they arrive. Run without a command for\n" +
			"the interactive chat.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return tui.Run(version, activeProfile, cfg)
		},
	}

	root.PersistentFlags().StringVar(&activeProfile, "profile", "", "named config profile")
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "verbose output")

	root.AddCommand(askCmd())
	root.AddCommand(parseCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(healthCmd())
	root.AddCommand(configCmd())
	root.AddCommand(setCmd())
	root.AddCommand(profilesCmd())
	root.AddCommand(versionCmd())
	return root
}

// loadConfig reads the profile, applies the .env file and environment
// overrides, and validates the result. An explicit --env must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnv(envFile, cmd.Flags().Changed("env")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ─── ask ────────────────────────────────────────────────────────────────────

func askCmd() *cobra.Command {
	var quiz bool
	var raw bool

	cmd := &cobra.Command{
		Use:   `ask "<message>"`,
		Short: "Send one message and stream the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			message := strings.Join(args, " ")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := api.NewClient(cfg)
			r := render.New(cfg.ThemeName(), terminalWidth())
			sd := api.NewStreamDisplay(os.Stdout, r, debugMode)

			fmt.Printf("\n  %s❯ %s%s\n", display.Bold, message, display.Reset)
			if debugMode {
				display.Info("Server:", cfg.ServerURL())
				display.Info("Transport:", client.Transport())
			}

			err = client.Stream(ctx, message, sd.HandleChunk)
			final := sd.Finish()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					display.Warn("Cancelled.")
					return nil
				}
				return err
			}

			if raw {
				display.SubHeader("Raw reply")
				fmt.Println(sd.Buffer())
				fmt.Println()
			}

			if !quiz {
				return nil
			}
			for _, t := range final.Tags {
				if t.Kind != uitag.KindQuiz {
					continue
				}
				if err := askQuiz(os.Stdout, r, t); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiz, "quiz", "q", false, "answer quizzes in the reply interactively")
	cmd.Flags().BoolVar(&raw, "raw", false, "also print the reply as received")
	return cmd
}

// askQuiz prompts for one quiz answer and prints the marked quiz.
func askQuiz(w io.Writer, r *render.Renderer, quiz uitag.Tag) error {
	opts := render.QuizOptions(quiz)
	options := make([]huh.Option[string], 0, len(opts))
	for _, o := range opts {
		options = append(options, huh.NewOption(o.Letter+". "+o.Text, o.Text))
	}

	var choice string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(quiz.Attr(uitag.AttrQuestion)).
			Options(options...).
			Value(&choice),
	)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("quiz prompt: %w", err)
	}

	fmt.Fprintln(w, r.Quiz(quiz, choice))
	fmt.Fprintln(w)
	return nil
}

// ─── parse ──────────────────────────────────────────────────────────────────

func parseCmd() *cobra.Command {
	var stream bool
	var segments bool
	var pretty bool
	var list bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse UI tags from a file or stdin and print JSON",
		Long: "Parse UI tags from a file (or stdin when no file or \"-\" is given).\n" +
			"--stream replays the input one character at a time and prints every\n" +
			"distinct render plan, showing what a streaming client would draw.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case list:
				printTagList(out, uitag.Parse(input).Tags)
				return nil
			case pretty:
				r := render.New(config.ThemeDark, terminalWidth())
				fmt.Fprintln(out, r.Segments(uitag.Segments(input)))
				return nil
			case stream:
				return writeJSONLines(out, streamPlans(input))
			case segments:
				return writeJSON(out, uitag.Segments(input))
			default:
				return writeJSON(out, uitag.Parse(input))
			}
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "print each distinct plan while replaying the input")
	cmd.Flags().BoolVar(&segments, "segments", false, "print text runs and tags in source order")
	cmd.Flags().BoolVar(&pretty, "render", false, "draw the parsed content instead of printing JSON")
	cmd.Flags().BoolVar(&list, "list", false, "list the tags one per line instead of printing JSON")
	return cmd
}

// printTagList writes one line per tag: offset, kind and attributes.
func printTagList(w io.Writer, tags []uitag.Tag) {
	if len(tags) == 0 {
		fmt.Fprintln(w, "  no tags")
		return
	}
	for _, t := range tags {
		fmt.Fprintf(w, "  %5d  %s  %s\n", t.Position, display.KindLabel(t.Kind), display.Attrs(t))
	}
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

// planStep is one line of parse --stream output.
type planStep struct {
	At    int  `json:"at"` // bytes of input consumed
	Final bool `json:"final,omitempty"`
	uitag.Plan
}

// streamPlans feeds input through a Stream one rune at a time and keeps each
// plan that differs from the one before it, then the final plan. Input is
// sliced, never re-encoded, so invalid UTF-8 bytes reach the buffer as is.
func streamPlans(input string) []planStep {
	var s uitag.Stream
	var steps []planStep

	for i := 0; i < len(input); {
		_, size := utf8.DecodeRuneInString(input[i:])
		p, _ := s.Append(input[i : i+size])
		i += size
		if n := len(steps); n > 0 && samePlan(steps[n-1].Plan, p) {
			continue
		}
		steps = append(steps, planStep{At: i, Plan: p})
	}

	final := s.Finish()
	steps = append(steps, planStep{
		At:    len(input),
		Final: true,
		Plan:  uitag.Plan{Text: final.Text, Tags: final.Tags},
	})
	return steps
}

func samePlan(a, b uitag.Plan) bool {
	if a.Text != b.Text || a.ShowCursor != b.ShowCursor || len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if !a.Tags[i].Equal(b.Tags[i]) {
			return false
		}
	}
	return true
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeJSONLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

// ─── serve ──────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	var scriptsFile string
	var addr string
	var delay time.Duration
	var jitter time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mock chat server (SSE and WebSocket)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if debugMode {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			scripts, err := server.LoadScripts(scriptsFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("delay") {
				delay = cfg.ChunkDelay()
			}
			if addr == "" {
				addr = cfg.Listen()
			}

			srv, err := server.New(server.Options{
				Scripts: scripts,
				Delay:   delay,
				Jitter:  jitter,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&scriptsFile, "scripts", "", "YAML reply scripts (default: built-in)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config listen_addr, $PORT or :3001)")
	cmd.Flags().DurationVar(&delay, "delay", config.DefaultChunkDelay, "pause before each chunk")
	cmd.Flags().DurationVar(&jitter, "jitter", 200*time.Millisecond, "random extra pause per chunk")
	return cmd
}

// ─── health ─────────────────────────────────────────────────────────────────

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the chat server is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			resp, err := api.NewClient(cfg).Health(ctx)
			if err != nil {
				return fmt.Errorf("server %s unreachable: %w", cfg.ServerURL(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  %s  %s\n", display.HealthLabel(resp.Status), cfg.ServerURL())
			if resp.Message != "" {
				fmt.Fprintf(out, "  %s%s%s\n", display.Dim, resp.Message, display.Reset)
			}
			return nil
		},
	}
}

// ─── config ─────────────────────────────────────────────────────────────────

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(activeProfile)
			if err != nil {
				return err
			}
			printConfig(cfg)
			return nil
		},
	}
}

func printConfig(cfg *config.Config) {
	display.Header("uichat Configuration")

	val := func(s, def string) string {
		if s == "" {
			return def + display.Dim + " (default)" + display.Reset
		}
		return s
	}
	delay := config.DefaultChunkDelay.String() + display.Dim + " (default)" + display.Reset
	if cfg.ChunkDelayMS > 0 {
		delay = cfg.ChunkDelay().String()
	}

	display.Info("Profile:", config.ProfileName(activeProfile))
	display.Info("Server:", val(cfg.Server, config.DefaultServer))
	display.Info("Transport:", val(cfg.Transport, config.TransportSSE))
	display.Info("Theme:", val(cfg.Theme, config.ThemeDark))
	display.Info("Listen:", val(cfg.ListenAddr, config.DefaultListenAddr))
	display.Info("Chunk delay:", delay)
	fmt.Println()
}

// ─── set ────────────────────────────────────────────────────────────────────

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value (server, transport, theme, listen, delay)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(activeProfile)
			if err != nil {
				return err
			}
			if err := applySetting(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			display.Success(fmt.Sprintf("%s set to %s", args[0], args[1]))
			return nil
		},
	}
}

func applySetting(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "server":
		cfg.Server = strings.TrimRight(value, "/")
	case "transport":
		cfg.Transport = strings.ToLower(value)
	case "theme":
		cfg.Theme = strings.ToLower(value)
	case "listen":
		cfg.ListenAddr = value
	case "delay":
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid delay %q (e.g. 300ms)", value)
		}
		cfg.ChunkDelayMS = int(d / time.Millisecond)
	default:
		return fmt.Errorf("unknown config key: %s (valid: server, transport, theme, listen, delay)", key)
	}
	return cfg.Validate()
}

// ─── profiles ───────────────────────────────────────────────────────────────

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List config profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}

			display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

			if len(profiles) == 0 {
				display.Warn("No profiles found.")
				return nil
			}

			for _, p := range profiles {
				marker := " "
				if p == config.ProfileName(activeProfile) {
					marker = display.Green + "●" + display.Reset
				}
				fmt.Printf("  %s %s\n", marker, p)
			}
			fmt.Println()
			return nil
		},
	}
}

// ─── version ────────────────────────────────────────────────────────────────

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uichat %s\n", version)
		},
	}
}

// ─── helpers ────────────────────────────────────────────────────────────────

// terminalWidth reads $COLUMNS; the renderer falls back to 80 columns.
func terminalWidth() int {
	w, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil {
		return 0
	}
	return w
}
