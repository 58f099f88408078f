package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kevin07696/etaca-service/internal/adapters/secrets"
	"github.com/kevin07696/etaca-service/internal/config"
	"github.com/kevin07696/etaca-service/pkg/resilience"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// defaultSecretPath is where rotated secrets land unless --secret-path is given
func defaultSecretPath(organizationID string) string {
	return "etaca/organizations/" + organizationID + "/fiserv"
}

// readSecret reads the shared secret without echo when stdin is a terminal,
// otherwise it takes the first line of stdin so the command can be piped.
func readSecret(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Fiserv shared secret: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return normalizeSecret(string(raw))
	}
	return readSecretLine(in)
}

func readSecretLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return normalizeSecret(line)
}

func normalizeSecret(raw string) (string, error) {
	secret := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret must not be empty")
	}
	return secret, nil
}

func rotateCredentialsCmd(timeout *time.Duration) *cobra.Command {
	var (
		organizationID string
		storeID        string
		secretPath     string
	)

	cmd := &cobra.Command{
		Use:   "rotate-credentials",
		Short: "Store a new Fiserv store id and shared secret for an organization",
		Long: `Writes the shared secret to the configured secret manager (SECRET_MANAGER)
and points the organization at it. Any inline secret on the organization row
is cleared. The secret is read from the terminal without echo, or from the
first line of stdin when piped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(storeID) == "" {
				return errors.New("--store-id is required")
			}
			if secretPath == "" {
				secretPath = defaultSecretPath(organizationID)
			}

			secret, err := readSecret(os.Stdin, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if _, err := env.organizations.GetByID(ctx, nil, organizationID); err != nil {
				return fmt.Errorf("organization %s: %w", organizationID, err)
			}

			secretsCfg := config.LoadSecretsFromEnv()
			sm, closer, err := secrets.New(ctx, secretsCfg, env.logger)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			secretCtx, secretCancel := resilience.DefaultTimeoutConfig().SecretContext(ctx)
			info, err := sm.RotateSecret(secretCtx, secretPath, secret)
			secretCancel()
			if err != nil {
				return fmt.Errorf("write secret: %w", err)
			}

			if err := env.organizations.UpdateCredentials(ctx, nil, organizationID, storeID, secretPath); err != nil {
				return fmt.Errorf("update organization: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "organization %s now uses store %s, secret %s version %s",
				organizationID, storeID, secretPath, info.CurrentVersion)
			if info.PreviousVersion != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (replaced %s)", info.PreviousVersion)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&organizationID, "org-id", "", "organization id")
	cmd.Flags().StringVar(&storeID, "store-id", "", "Fiserv store id")
	cmd.Flags().StringVar(&secretPath, "secret-path", "", "secret manager path (default etaca/organizations/{org-id}/fiserv)")
	_ = cmd.MarkFlagRequired("org-id")

	return cmd
}
