package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document accepted by `admin seed`
//
//	organizations:
//	  - name: Parafia sw. Anny
//	    slug: parafia-sw-anny
//	    status: active
//	    fiserv_store_id: "3300001"
//	    fiserv_secret_path: organizations/parafia-sw-anny/fiserv
//	    goals:
//	      - id: 6f1c2e0a-0d7b-4b6e-9d55-0c3fb2f1a001
//	        title: Remont dachu
type SeedFile struct {
	Organizations []SeedOrganization `yaml:"organizations"`
}

// SeedOrganization is one tenant entry. Organizations are matched by slug.
type SeedOrganization struct {
	ID               string     `yaml:"id"`
	Name             string     `yaml:"name"`
	Slug             string     `yaml:"slug"`
	Status           string     `yaml:"status"`
	FiservStoreID    string     `yaml:"fiserv_store_id"`
	FiservSecretPath string     `yaml:"fiserv_secret_path"`
	Goals            []SeedGoal `yaml:"goals"`
}

// SeedGoal is matched by id. Active defaults to true.
type SeedGoal struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Active *bool  `yaml:"active"`
}

// parseSeedFile decodes and validates a seed document. Inline secrets are
// rejected, the secret belongs in the secret manager.
func parseSeedFile(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file SeedFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if len(file.Organizations) == 0 {
		return nil, fmt.Errorf("seed file has no organizations")
	}

	seen := make(map[string]bool, len(file.Organizations))
	for i, org := range file.Organizations {
		if strings.TrimSpace(org.Name) == "" {
			return nil, fmt.Errorf("organizations[%d]: name is required", i)
		}
		if strings.TrimSpace(org.Slug) == "" {
			return nil, fmt.Errorf("organizations[%d]: slug is required", i)
		}
		if seen[org.Slug] {
			return nil, fmt.Errorf("organizations[%d]: duplicate slug %q", i, org.Slug)
		}
		seen[org.Slug] = true

		switch domain.OrganizationStatus(org.Status) {
		case "", domain.OrganizationStatusPending, domain.OrganizationStatusActive, domain.OrganizationStatusDisabled:
		default:
			return nil, fmt.Errorf("organizations[%d]: unknown status %q", i, org.Status)
		}

		for j, goal := range org.Goals {
			if strings.TrimSpace(goal.Title) == "" {
				return nil, fmt.Errorf("organizations[%d].goals[%d]: title is required", i, j)
			}
		}
	}
	return &file, nil
}

func (o SeedOrganization) toDomain() *domain.Organization {
	status := domain.OrganizationStatus(o.Status)
	if status == "" {
		status = domain.OrganizationStatusPending
	}
	return &domain.Organization{
		ID:               o.ID,
		Name:             strings.TrimSpace(o.Name),
		Slug:             strings.TrimSpace(o.Slug),
		Status:           status,
		FiservStoreID:    strings.TrimSpace(o.FiservStoreID),
		FiservSecretPath: strings.TrimSpace(o.FiservSecretPath),
	}
}

func (g SeedGoal) toDomain(organizationID string) *domain.Goal {
	active := true
	if g.Active != nil {
		active = *g.Active
	}
	return &domain.Goal{
		ID:             g.ID,
		OrganizationID: organizationID,
		Title:          strings.TrimSpace(g.Title),
		IsActive:       active,
	}
}

func seedCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Upsert organizations and goals from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			file, err := parseSeedFile(f)
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

			return env.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
				for _, seedOrg := range file.Organizations {
					org := seedOrg.toDomain()
					if err := env.organizations.Upsert(ctx, tx, org); err != nil {
						return fmt.Errorf("organization %s: %w", org.Slug, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "organization %s  %s (%s)\n", org.ID, org.Slug, org.Status)
					for _, seedGoal := range seedOrg.Goals {
						goal := seedGoal.toDomain(org.ID)
						if err := env.goals.Upsert(ctx, tx, goal); err != nil {
							return fmt.Errorf("organization %s goal %q: %w", org.Slug, goal.Title, err)
						}
						fmt.Fprintf(cmd.OutOrStdout(), "  goal %s  %s\n", goal.ID, goal.Title)
					}
				}
				return nil
			})
		},
	}
}
