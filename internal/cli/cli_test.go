package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terraincognita07/prostranstvo/internal/config"
	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/services"
	"golang.org/x/crypto/bcrypt"
)

func TestReadLineTrimsLineEnding(t *testing.T) {
	line, err := readLine(strings.NewReader("s3cret pass\r\nignored\n"))
	if err != nil {
		t.Fatalf("readLine returned error: %v", err)
	}
	if string(line) != "s3cret pass" {
		t.Fatalf("expected %q, got %q", "s3cret pass", line)
	}
}

func TestReadLineAcceptsMissingNewline(t *testing.T) {
	line, err := readLine(strings.NewReader("no-newline"))
	if err != nil {
		t.Fatalf("readLine returned error: %v", err)
	}
	if string(line) != "no-newline" {
		t.Fatalf("expected %q, got %q", "no-newline", line)
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := hashPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashPassword returned error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")); err != nil {
		t.Fatalf("expected hash to match password, got %v", err)
	}
}

func TestHashPasswordRejectsBlank(t *testing.T) {
	if _, err := hashPassword([]byte("   "), bcrypt.MinCost); !errors.Is(err, errEmptyPassword) {
		t.Fatalf("expected errEmptyPassword, got %v", err)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand("test", func(context.Context, config.Config) error { return nil })

	for _, name := range []string{"serve", "set-tier", "hash-password", "webhook", "gen-secret"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q to be registered, got %v (%v)", name, cmd, err)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Fatal("expected persistent --config flag")
	}
}

func TestGenSecretPrintsToken(t *testing.T) {
	root := NewRootCommand("test", nil)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"gen-secret", "--length", "40"})

	if err := root.Execute(); err != nil {
		t.Fatalf("gen-secret returned error: %v", err)
	}
	token := strings.TrimSpace(out.String())
	if len(token) != 40 {
		t.Fatalf("expected 40 character token, got %q", token)
	}
}

func TestSetTierRejectsUnknownTier(t *testing.T) {
	root := NewRootCommand("test", nil)
	root.SetArgs([]string{"set-tier", "42", "gold"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); !errors.Is(err, services.ErrInvalidTier) {
		t.Fatalf("expected invalid tier error, got %v", err)
	}
}

func TestRunSetTierUpdatesStore(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "json"
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")

	out := &bytes.Buffer{}
	if err := RunSetTier(context.Background(), cfg, 42, models.TierPremium, out); err != nil {
		t.Fatalf("RunSetTier returned error: %v", err)
	}
	if !strings.Contains(out.String(), "premium") {
		t.Fatalf("expected confirmation to mention tier, got %q", out.String())
	}

	store, closer, err := db.OpenStore(context.Background(), StoreOptions(cfg))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closer.Close()

	user, err := db.NewRepositories(store).Users.Find(context.Background(), 42)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if user.Subscription != models.TierPremium {
		t.Fatalf("expected premium tier, got %s", user.Subscription)
	}
}
