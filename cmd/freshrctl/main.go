// Command freshrctl is a terminal client for the FRESHR API: it plays
// quizzes against the timed-session endpoints and generates and exports
// presentations.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"freshr-backend/internal/apiclient"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "freshrctl",
		Short:         "Terminal client for the FRESHR study backend",
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.String("server", "http://localhost:8080", "FRESHR API base URL")
	pf.String("token", "", "Bearer token (or set FRESHR_TOKEN)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	root.AddCommand(playCmd(), slidesCmd(), exportCmd(), statsCmd(), tokenCmd())
	return root
}

func setupLogging(v *viper.Viper) {
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
	_ = v.BindPFlags(cmd.InheritedFlags())

	v.SetEnvPrefix("FRESHR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("jwt-secret", "FRESHR_JWT_SECRET", "JWT_SECRET")

	v.SetConfigName("freshrctl")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/freshr")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	setupLogging(v)
	return v
}

func clientFor(v *viper.Viper) *apiclient.Client {
	return apiclient.New(v.GetString("server"), v.GetString("token"))
}

func parseTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}
