package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/prostranstvo/internal/config"
	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/security"
	"github.com/terraincognita07/prostranstvo/internal/services"
	"github.com/terraincognita07/prostranstvo/internal/telegram"
	"golang.org/x/crypto/bcrypt"
)

// ServeFunc runs the bot until ctx is canceled.
type ServeFunc func(ctx context.Context, cfg config.Config) error

func NewRootCommand(version string, serve ServeFunc) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "prostranstvo",
		Short:         "Моё пространство: tarot, daily energy and diary chat bot",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")

	loadConfig := func() (config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		serveCommand(loadConfig, serve),
		setTierCommand(loadConfig),
		hashPasswordCommand(),
		webhookCommand(loadConfig),
		secretCommand(),
	)
	return root
}

func serveCommand(loadConfig func() (config.Config, error), serve ServeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (webhook when WEBHOOK_URL is set, long polling otherwise)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireServe(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func setTierCommand(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "set-tier <user_id> <free|base|premium>",
		Short: "Change a user's subscription tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}
			tier, err := models.ParseTier(args[1])
			if err != nil {
				return fmt.Errorf("%w: %s", services.ErrInvalidTier, args[1])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return RunSetTier(cmd.Context(), cfg, userID, tier, cmd.OutOrStdout())
		},
	}
}

// RunSetTier opens the configured store and updates one user's tier.
func RunSetTier(ctx context.Context, cfg config.Config, userID int64, tier models.Tier, out io.Writer) error {
	store, closer, err := db.OpenStore(ctx, StoreOptions(cfg))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closer.Close()

	repos := db.NewRepositories(store)
	entitlements := services.NewEntitlementService(repos.Users, cfg.Location(), nil)
	user, err := entitlements.SetSubscription(ctx, userID, tier)
	if err != nil {
		return fmt.Errorf("set tier: %w", err)
	}

	fmt.Fprintf(out, "✅ user %d is now on %s\n", user.ID, user.Subscription)
	return nil
}

func hashPasswordCommand() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Read an admin password from stdin and print its bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(os.Stdin, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			hash, err := hashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func webhookCommand(loadConfig func() (config.Config, error)) *cobra.Command {
	webhook := &cobra.Command{
		Use:   "webhook",
		Short: "Register or remove the Telegram webhook",
	}

	webhook.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Point Telegram at WEBHOOK_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Bot.Token == "" || cfg.Bot.WebhookURL == "" {
				return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN and WEBHOOK_URL", config.ErrMissingSetting)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := telegram.NewClient(cfg.Bot.Token, telegram.ClientOptions{BaseURL: cfg.Bot.APIBaseURL})
			if err := client.SetWebhook(ctx, cfg.Bot.WebhookURL, cfg.Bot.WebhookSecret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ webhook set to %s\n", cfg.Bot.WebhookURL)
			return nil
		},
	})

	webhook.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook so long polling can be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Bot.Token == "" {
				return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN", config.ErrMissingSetting)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := telegram.NewClient(cfg.Bot.Token, telegram.ClientOptions{BaseURL: cfg.Bot.APIBaseURL})
			if err := client.DeleteWebhook(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ webhook removed")
			return nil
		},
	})
	return webhook
}

func secretCommand() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random value for SECRET_KEY or WEBHOOK_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := security.RandomToken(length)
			if err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "length", 48, "number of characters")
	return cmd
}

// StoreOptions maps the storage section of cfg to db.StoreOptions.
func StoreOptions(cfg config.Config) db.StoreOptions {
	return db.StoreOptions{
		Driver:      cfg.Storage.Driver,
		DataDir:     cfg.Storage.DataDir,
		SQLitePath:  cfg.Storage.SQLitePath,
		DynamoTable: cfg.Storage.DynamoTable,
		AWSRegion:   cfg.Storage.AWSRegion,
	}
}
