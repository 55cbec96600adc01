package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"carbon-ledger/internal/app"
	authsvc "carbon-ledger/internal/application/auth"
	creditsvc "carbon-ledger/internal/application/credits"
	orgsvc "carbon-ledger/internal/application/orgs"
	"carbon-ledger/internal/ledger"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed FILE.toml",
	Short: "Replay a TOML fixture through the ledger",
	Long: `Register the organizations and issue, transfer and retire the credits
listed in FILE.toml, in file order. Every step is journaled like an API call.

  [[organization]]
  identity  = "acme"
  name      = "Acme Forestry"
  secret    = "s3cret!pass"   # optional, enables login
  emissions = 120

  [[credit]]
  issuer       = "acme"
  amount       = 100
  project_type = "reforestation"
  transfer_to  = "beta"        # optional
  retire       = true          # optional, retired by the final owner`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

type seedFile struct {
	Organizations []seedOrganization `toml:"organization"`
	Credits       []seedCredit       `toml:"credit"`
}

type seedOrganization struct {
	Identity  string `toml:"identity"`
	Name      string `toml:"name"`
	Secret    string `toml:"secret"`
	Emissions int64  `toml:"emissions"`
}

type seedCredit struct {
	Issuer      string `toml:"issuer"`
	Amount      int64  `toml:"amount"`
	ProjectType string `toml:"project_type"`
	TransferTo  string `toml:"transfer_to"`
	Retire      bool   `toml:"retire"`
}

func loadSeedFile(path string) (seedFile, error) {
	var f seedFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return seedFile{}, fmt.Errorf("load seed file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return seedFile{}, fmt.Errorf("load seed file: unknown keys %s", strings.Join(keys, ", "))
	}
	return f, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := loadSeedFile(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := app.Open(cmd.Context(), cfg, app.OpenOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	return applySeed(cmd.Context(), rt.Ledger, &authsvc.Service{DB: rt.DB}, f, cmd.OutOrStdout())
}

// applySeed replays f in order and stops at the first rejected step.
// Organizations that are already registered are skipped. Omitted or zero
// emissions report nothing; negative emissions are rejected.
func applySeed(ctx context.Context, l *ledger.Ledger, creds authsvc.CredentialStore, f seedFile, out io.Writer) error {
	credits := &creditsvc.Service{Ledger: l}

	for i, o := range f.Organizations {
		id := ledger.Identity(o.Identity)
		if l.IsRegistered(id) {
			fmt.Fprintf(out, "organization %s already registered, skipped\n", o.Identity)
			continue
		}
		if o.Emissions < 0 {
			return fmt.Errorf("organization #%d (%s) emissions: %w", i+1, o.Identity, ledger.ErrInvalidAmount)
		}
		svc := &orgsvc.Service{Ledger: l}
		if o.Secret != "" {
			svc.Credentials = creds
		}
		if _, err := svc.Register(ctx, orgsvc.RegisterInput{Identity: o.Identity, Name: o.Name, Secret: o.Secret}); err != nil {
			return fmt.Errorf("organization #%d (%s): %w", i+1, o.Identity, err)
		}
		if o.Emissions > 0 {
			if err := l.ReportEmissions(ctx, id, o.Emissions); err != nil {
				return fmt.Errorf("organization #%d (%s) emissions: %w", i+1, o.Identity, err)
			}
		}
		fmt.Fprintf(out, "registered %s\n", o.Identity)
	}

	for i, c := range f.Credits {
		credit, err := credits.Issue(ctx, ledger.Identity(c.Issuer), c.Amount, c.ProjectType)
		if err != nil {
			return fmt.Errorf("credit #%d: issue: %w", i+1, err)
		}
		owner := credit.Owner
		if c.TransferTo != "" {
			if _, err := credits.Transfer(ctx, owner, ledger.Identity(c.TransferTo), credit.ID); err != nil {
				return fmt.Errorf("credit #%d: transfer: %w", i+1, err)
			}
			owner = ledger.Identity(c.TransferTo)
		}
		if c.Retire {
			if _, err := credits.Retire(ctx, owner, credit.ID); err != nil {
				return fmt.Errorf("credit #%d: retire: %w", i+1, err)
			}
		}
		fmt.Fprintf(out, "credit %d: %d t %s owned by %s\n", credit.ID, credit.Amount, credit.ProjectType, owner)
	}

	stats := l.Stats()
	fmt.Fprintf(out, "issued %d, retired %d, outstanding %d\n", stats.TotalIssued, stats.TotalRetired, stats.Outstanding)
	return nil
}
