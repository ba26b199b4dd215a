// ABOUTME: Entry point for jbossbot, the issue-tracker IRC bot.
// ABOUTME: Subcommands: serve, init, health, version.

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/jbossbot/jbossbot/internal/bot"
	"github.com/jbossbot/jbossbot/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
    _ _                     _           _
   (_) |__   ___  ___ ___  | |__   ___ | |_
   | | '_ \ / _ \/ __/ __| | '_ \ / _ \| __|
   | | |_) | (_) \__ \__ \ | |_) | (_) | |_
  _/ |_.__/ \___/|___/___/ |_.__/ \___/ \__|
 |__/
`

// getConfigPath returns the path to the bot config file.
// Priority: JBOSSBOT_CONFIG env var > XDG_CONFIG_HOME/jbossbot/jbossbot.yaml > ~/.config/jbossbot/jbossbot.yaml
func getConfigPath() string {
	if envPath := os.Getenv("JBOSSBOT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "jbossbot.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "jbossbot", "jbossbot.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: jbossbot <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve      Connect to IRC and start the webhook listener")
		fmt.Println("  init       Create a new config file interactively")
		fmt.Println("  health     Check webhook listener health")
		fmt.Println("  version    Print version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Printf("jbossbot %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("IRC:      %s:%d as %s\n", cfg.IRC.Server, cfg.IRC.Port, cfg.IRC.Nick)
	green.Print("    ▶ ")
	fmt.Printf("Webhooks: %s\n", cfg.HTTP.Addr)
	fmt.Println()

	logger.Info("starting jbossbot",
		"config", configPath,
		"irc_server", cfg.IRC.Server,
		"http_addr", cfg.HTTP.Addr,
	)

	b, err := bot.New(cfg, version, logger)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	return b.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.HTTP.Addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("jbossbot configuration setup")
	fmt.Println("============================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- IRC Configuration ---")
	server := prompt(reader, "IRC server", "irc.libera.chat")
	port := prompt(reader, "IRC port", "6697")
	tlsStr := prompt(reader, "Use TLS?", "yes")
	nick := prompt(reader, "Nick", "jbossbot")
	channels := prompt(reader, "Channels (comma-separated)", "#jboss")

	fmt.Println("\n--- Webhook Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8113")

	fmt.Println("\n--- Database Configuration ---")
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".local", "share", "jbossbot", "routes.db")
	dbPath := prompt(reader, "SQLite database path", defaultDB)

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	useTLS := strings.ToLower(tlsStr) == "yes" || strings.ToLower(tlsStr) == "y"

	var cfg strings.Builder
	cfg.WriteString("# jbossbot configuration\n")
	cfg.WriteString("# Generated by jbossbot init\n\n")

	cfg.WriteString("irc:\n")
	cfg.WriteString(fmt.Sprintf("  server: %q\n", server))
	cfg.WriteString(fmt.Sprintf("  port: %s\n", port))
	cfg.WriteString(fmt.Sprintf("  tls: %t\n", useTLS))
	cfg.WriteString(fmt.Sprintf("  nick: %q\n", nick))
	cfg.WriteString("  channels:\n")
	for _, ch := range strings.Split(channels, ",") {
		cfg.WriteString(fmt.Sprintf("    - %q\n", strings.TrimSpace(ch)))
	}
	cfg.WriteString("\n")

	cfg.WriteString("http:\n")
	cfg.WriteString(fmt.Sprintf("  addr: %q\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("trackers:\n")
	cfg.WriteString("  jira:\n")
	cfg.WriteString("    - name: \"jboss\"\n")
	cfg.WriteString("      base_url: \"https://issues.redhat.com\"\n")
	cfg.WriteString("  github:\n")
	cfg.WriteString("    enabled: true\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString("  enabled: false\n")
	cfg.WriteString("  path: \"/metrics\"\n")

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the bot:")
	fmt.Printf("  jbossbot serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs.
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
