package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/Schlaumeier5/student-database/internal/curriculum"
	"github.com/Schlaumeier5/student-database/internal/handler"
	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/lernjob"
	"github.com/Schlaumeier5/student-database/internal/llm"
	"github.com/Schlaumeier5/student-database/internal/llm/prompts"
	"github.com/Schlaumeier5/student-database/internal/model"
	"github.com/Schlaumeier5/student-database/internal/store"
)

const sessionCleanupInterval = time.Hour

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lernbuero",
		Short: "Student database for self-paced learning offices",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), exportCmd(), weekCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `lernbuero --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "lernbuero.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("curriculum", "c", nil, "Paths to curriculum JSON files (repeatable)")
	f.StringP("lang", "l", "de", "Default UI language (de, en)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /lb)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("prediction", lernjob.ProjectionWeeks, "Grade prediction (weeks, selected)")
	f.Float64("prediction-factor", 0.5, "Share of selected tasks counted by the selected prediction")
	f.String("llm-url", "", "OpenAI-compatible API base URL; empty disables hints")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("hint-variant", string(prompts.HintSocratic), "Hint prompt variant (socratic, standard, direct)")
	f.String("admin-password", "", "Initial admin password (or set LERNBUERO_ADMIN_PASSWORD)")
	addCommonFlags(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import curriculum JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().Bool("force", false, "Import files even if they were imported before")
	addCommonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export student progress reports as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("date", "", "Report date in YYYY-MM-DD format (default today)")
	f.String("prediction", lernjob.ProjectionWeeks, "Grade prediction (weeks, selected)")
	f.Float64("prediction-factor", 0.5, "Share of selected tasks counted by the selected prediction")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addCommonFlags(cmd)
	return cmd
}

func weekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week N",
		Short: "Set the current week of the school year",
		Args:  cobra.ExactArgs(1),
		RunE:  runWeek,
	}
	addCommonFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LERNBUERO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("lernbuero")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lernbuero")
	v.AddConfigPath("/etc/lernbuero")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// normalizeBasePath turns "lb/" into "/lb".
func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// newHinter returns nil when no LLM endpoint is configured.
func newHinter(ctx context.Context, v *viper.Viper) (handler.Hinter, error) {
	url := v.GetString("llm-url")
	if url == "" {
		slog.Info("no LLM endpoint configured, hints disabled")
		return nil, nil
	}
	variant := strings.ToLower(strings.TrimSpace(v.GetString("hint-variant")))
	if !prompts.IsValidVariant(variant) {
		slog.Warn("invalid hint-variant, using socratic", "variant", variant)
		variant = string(prompts.HintSocratic)
	}
	client, err := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"), variant)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"), "variant", variant)
	return client, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if err := loadCurricula(db, v.GetStringSlice("curriculum"), false); err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	hints, err := newHinter(ctx, v)
	if err != nil {
		return err
	}

	basePath := normalizeBasePath(v.GetString("base-path"))
	cfg := model.ServerConfig{
		BasePath:         basePath,
		SecureCookies:    v.GetBool("secure-cookies"),
		Prediction:       v.GetString("prediction"),
		PredictionFactor: v.GetFloat64("prediction-factor"),
	}

	h, err := handler.New(db, hints, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	go cleanupSessions(ctx, db)

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"base_path", basePath,
		"prediction", cfg.Prediction,
		"hints", hints != nil,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func cleanupSessions(ctx context.Context, db *store.Store) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CleanupExpiredSessions()
			if err != nil {
				slog.Error("failed to clean up sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("removed expired sessions", "count", n)
			}
		}
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return loadCurricula(db, args, v.GetBool("force"))
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	proj, err := lernjob.ProjectionByName(v.GetString("prediction"), v.GetFloat64("prediction-factor"))
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	reports, year, err := db.ExportReports(proj)
	if err != nil {
		return fmt.Errorf("export reports: %w", err)
	}

	date := v.GetString("date")
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}
	export := model.ProgressExport{
		Date:       date,
		Prediction: v.GetString("prediction"),
		Students:   reports,
	}
	if year != nil {
		export.SchoolYear = year.Label
		export.CurrentWeek = year.CurrentWeek
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported reports", "students", len(reports))
	return nil
}

func runWeek(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	week, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid week %q: %w", args[0], err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.SetCurrentWeek(week); err != nil {
		return err
	}
	slog.Info("current week set", "week", week)
	return nil
}

// loadCurricula imports each file unless the same content was imported
// before. Changed files are imported again; the import only adds rows.
func loadCurricula(db *store.Store, paths []string, force bool) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.ImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash && !force {
			slog.Info("curriculum file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" && storedHash != hash {
			slog.Warn("curriculum file changed since last import, adding new entries", "path", path)
		}

		doc, err := curriculum.Parse(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if len(doc.Overweight) > 0 {
			slog.Warn("topic weights sum above 1", "path", path, "topics", doc.Overweight)
		}
		stats, err := db.ImportCurriculum(doc)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported curriculum", "path", path,
			"subjects", stats.Subjects, "topics", stats.Topics, "tasks", stats.Tasks,
			"classes", stats.Classes, "rooms", stats.Rooms)
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return errors.New("admin password is required: set --admin-password flag or LERNBUERO_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
