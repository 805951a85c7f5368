package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"companybot/internal/validate"
)

var (
	onboardName string
	onboardURL  string
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Onboard a single company from the command line",
	Long: `Run the full onboarding pipeline for one company without the bot:
crawl the website, summarize it, and register the assistant.

Example:
  companybot onboard --name "Acme Inc" --url https://acme.example`,
	RunE: runOnboard,
}

func init() {
	onboardCmd.Flags().StringVar(&onboardName, "name", "", "company name")
	onboardCmd.Flags().StringVar(&onboardURL, "url", "", "company website URL")
	onboardCmd.MarkFlagRequired("name")
	onboardCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	name, err := validate.CompanyName(onboardName)
	if err != nil {
		return fmt.Errorf("invalid company name: %w", err)
	}
	companyURL, err := validate.URL(onboardURL)
	if err != nil {
		return fmt.Errorf("invalid company URL: %w", err)
	}
	if err := validate.CheckReachable(ctx, companyURL); err != nil {
		return fmt.Errorf("company website unreachable: %w", err)
	}

	registry, _, _, err := buildRegistry(ctx, GetConfig())
	if err != nil {
		return err
	}

	a, err := registry.GetOrCreate(ctx, name, companyURL)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Assistant registered: %s\n", a.ID())
	return nil
}
