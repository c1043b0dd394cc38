package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/synapse-labs/synapse/internal/adapters/driven/credentials"
	"github.com/synapse-labs/synapse/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured intelligence sources",
	RunE:  runSourcesList,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show [source-id]",
	Short: "Show the configuration of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesShow,
}

func init() {
	sourcesCmd.AddCommand(sourcesShowCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if catalogue == nil {
		return notConfigured("source catalogue")
	}

	descs := catalogue.List()
	if len(descs) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}

	available := credentialStatus(descs)

	cmd.Println("Configured sources:")
	for i := range descs {
		d := &descs[i]
		marker := ""
		if d.IsCritical {
			marker = " (critical)"
		}
		if set, known := available[d.CredentialEnv]; known && !set {
			marker += " (no credential)"
		}
		cmd.Printf("  %-*s %-10s %-8s %s%s\n", sourceColumn, d.ID, d.Kind, d.Tier, d.Name(), marker)
	}
	return nil
}

func runSourcesShow(cmd *cobra.Command, args []string) error {
	if catalogue == nil {
		return notConfigured("source catalogue")
	}

	d, err := catalogue.Get(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("ID:          %s\n", d.ID)
	cmd.Printf("Name:        %s\n", d.Name())
	cmd.Printf("Kind:        %s\n", d.Kind)
	cmd.Printf("Tier:        %s\n", d.Tier)
	cmd.Printf("Critical:    %t\n", d.IsCritical)
	cmd.Printf("Timeout:     %s\n", d.Timeout)
	cmd.Printf("Cache TTL:   %s\n", d.CacheTTL)
	if d.RateLimit.IsUnlimited() {
		cmd.Println("Rate limit:  none")
	} else {
		cmd.Printf("Rate limit:  %d per %s\n", d.RateLimit.Calls, d.RateLimit.Window)
	}
	if until := catalogue.BackoffUntil(d.ID); !until.IsZero() {
		cmd.Printf("Backoff:     rate limited until %s\n", until.Format(time.RFC3339))
	}
	if d.CredentialEnv != "" {
		state := ""
		if set, known := credentialStatus([]domain.SourceDescriptor{*d})[d.CredentialEnv]; known {
			state = " (missing)"
			if set {
				state = " (set)"
			}
		}
		cmd.Printf("Credential:  %s%s\n", d.CredentialEnv, state)
	}
	if len(d.Params) > 0 {
		keys := make([]string, 0, len(d.Params))
		for k := range d.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Println("Params:")
		for _, k := range keys {
			cmd.Println(fmt.Sprintf("  %s = %s", k, d.Params[k]))
		}
	}
	return nil
}

// credentialStatus reports which credentials are set, or nil when no
// provider is configured.
func credentialStatus(descs []domain.SourceDescriptor) map[string]bool {
	if creds == nil {
		return nil
	}
	names := make([]string, 0, len(descs))
	for i := range descs {
		names = append(names, descs[i].CredentialEnv)
	}
	return credentials.Status(creds, names)
}
