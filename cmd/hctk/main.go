// Command hctk is the healthcare test toolkit: it runs the data-integrity
// and compliance checks of the test framework against a configured backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/config"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/domain/fixture"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/domain/patient"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/hipaa"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hctk",
		Short:         "Healthcare test framework verification toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(maskCmd())
	rootCmd.AddCommand(keygenCmd())

	if err := rootCmd.Execute(); err != nil {
		logger := newLogger()
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// connect loads config, opens the backend, and hands back the executor with
// masking wired into statement logging. The returned func is the teardown.
func connect(ctx context.Context, logger zerolog.Logger) (*config.Config, *db.Executor, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	mgr := db.NewManager(logger)
	if err := mgr.Connect(ctx, cfg.Database()); err != nil {
		return nil, nil, nil, err
	}
	teardown := func() {
		if err := mgr.Disconnect(); err != nil {
			logger.Warn().Err(err).Msg("disconnect failed")
		}
	}
	return cfg, mgr.Executor().WithRedactor(hipaa.Mask), teardown, nil
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <patient-id>",
		Short: "Validate structural integrity of a patient aggregate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			_, exec, teardown, err := connect(ctx, logger)
			if err != nil {
				return err
			}
			defer teardown()

			report, err := patient.NewValidator(exec, logger).Validate(ctx, args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !report.DataIntegrityPassed {
				return fmt.Errorf("data integrity failed for patient %s", args[0])
			}
			return nil
		},
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit-trail compliance checks",
	}

	var window time.Duration
	verifyCmd := &cobra.Command{
		Use:   "verify <subject-id> <action> <actor-id>",
		Short: "Verify an audit-trail entry exists within the recency window",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			action, err := hipaa.ParseAction(args[1])
			if err != nil {
				return err
			}

			cfg, exec, teardown, err := connect(ctx, logger)
			if err != nil {
				return err
			}
			defer teardown()

			if window <= 0 {
				window = cfg.AuditWindow
			}
			found, err := hipaa.NewVerifier(exec, logger).Verify(ctx, args[0], action, args[2], window)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no %s audit entry for subject %s by actor %s within %s",
					action, args[0], args[2], window)
			}
			logger.Info().
				Str("subject", args[0]).
				Str("action", string(action)).
				Msg("audit trail verified")
			return nil
		},
	}
	verifyCmd.Flags().DurationVar(&window, "window", 0,
		"recency window (defaults to AUDIT_WINDOW, then 5m)")
	cmd.AddCommand(verifyCmd)
	return cmd
}

func cleanupCmd() *cobra.Command {
	var (
		patients   []string
		prefixes   []string
		userMarker string
	)
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove synthetic test fixtures in dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			var scope fixture.Scope
			for _, id := range patients {
				scope.AddPatient(id)
			}
			for _, p := range prefixes {
				scope.AddPrefix(p)
			}
			scope.UserMarker = userMarker
			if scope.Empty() {
				return fmt.Errorf("nothing to clean: pass --patient, --prefix, or --user-marker")
			}

			_, exec, teardown, err := connect(ctx, logger)
			if err != nil {
				return err
			}
			defer teardown()

			if err := fixture.NewCleaner(exec, logger).Cleanup(ctx, scope); err != nil {
				return err
			}
			logger.Info().Msg("cleanup completed with zero residual rows")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&patients, "patient", nil, "patient id to purge (repeatable)")
	cmd.Flags().StringSliceVar(&prefixes, "prefix", nil, "patient id prefix to purge (repeatable)")
	cmd.Flags().StringVar(&userMarker, "user-marker", fixture.Marker, "marker for synthetic user accounts")
	return cmd
}

func maskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mask <text>",
		Short: "Redact sensitive substrings from text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), hipaa.Mask(strings.Join(args, " ")))
			return nil
		},
	}
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate fresh AES-256 key material for PHI_ENCRYPTION_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := hipaa.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
