package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/etl"
)

var (
	customerID      string
	customerName    string
	customerEmail   string
	customerSegment string
	customerCity    string
	customerState   string

	trendMonths int
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Maintain and classify customer dimension entries",
}

var customerUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply an SCD Type 2 update to a customer",
	Long: `Compare the given attributes against the customer's current dimension
version. When any tracked field differs, the current version is expired and a
new version opened with an incremented version number; identical attributes
report "no change" and create nothing. Attribute flags left unset keep the
current version's values.

Example:
  salesmart customer update --id CUST000042 --name "Alice B." --city Portland`,
	RunE: runCustomerUpdate,
}

var customerTierCmd = &cobra.Command{
	Use:   "tier",
	Short: "Print the customer's discount tier",
	RunE:  runCustomerTier,
}

var customerTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Print the customer's sales trend",
	Long: `Classify the customer's spend in the current lookback window against
the preceding window of the same width: NEW, GROWING, DECLINING, or STABLE.`,
	RunE: runCustomerTrend,
}

func init() {
	customerCmd.PersistentFlags().StringVar(&customerID, "id", "",
		"customer natural key (required)")

	customerUpdateCmd.Flags().StringVar(&customerName, "name", "", "customer name")
	customerUpdateCmd.Flags().StringVar(&customerEmail, "email", "", "email address")
	customerUpdateCmd.Flags().StringVar(&customerSegment, "segment", "", "customer segment")
	customerUpdateCmd.Flags().StringVar(&customerCity, "city", "", "city")
	customerUpdateCmd.Flags().StringVar(&customerState, "state", "", "state")

	customerTrendCmd.Flags().IntVar(&trendMonths, "months", 0,
		"lookback window width in months")

	customerCmd.AddCommand(customerUpdateCmd)
	customerCmd.AddCommand(customerTierCmd)
	customerCmd.AddCommand(customerTrendCmd)
}

func runCustomerUpdate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if customerID == "" {
		return fmt.Errorf("customer id is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	cur, err := etl.CurrentCustomer(ctx, pool, customerID)
	if errors.Is(err, etl.ErrNoCurrentRecord) {
		return fmt.Errorf("customer %s has no current dimension entry; "+
			"seed or insert it first", customerID)
	}
	if err != nil {
		return err
	}

	// Unset flags keep the current version's values; only flags the caller
	// actually passed participate in the change detection.
	attrs := cur.Attributes()
	if cmd.Flags().Changed("name") {
		attrs.Name = customerName
	}
	if cmd.Flags().Changed("email") {
		attrs.Email = customerEmail
	}
	if cmd.Flags().Changed("segment") {
		attrs.Segment = customerSegment
	}
	if cmd.Flags().Changed("city") {
		attrs.City = customerCity
	}
	if cmd.Flags().Changed("state") {
		attrs.State = customerState
	}

	versioner := etl.NewVersioner(pool, nil)
	update, err := versioner.UpdateCustomer(ctx, customerID, attrs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	switch update.Result {
	case etl.SCDNoChange:
		cmd.Printf("No change for %s (version %d)\n", customerID, update.OldVersion)
	case etl.SCDVersioned:
		cmd.Printf("Versioned %s: v%d -> v%d\n", customerID,
			update.OldVersion, update.NewVersion)
	}
	return nil
}

func runCustomerTier(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if customerID == "" {
		return fmt.Errorf("customer id is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	tier, err := etl.CustomerTier(ctx, pool, customerID)
	if err != nil {
		return err
	}

	cmd.Println(tier)
	return nil
}

func runCustomerTrend(cmd *cobra.Command, args []string) error {
	if trendMonths > 0 {
		cfg.Trend.LookbackMonths = trendMonths
	}
	if err := cfg.ValidateTrend(); err != nil {
		return err
	}
	if customerID == "" {
		return fmt.Errorf("customer id is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	trend, err := etl.SalesTrend(ctx, pool, customerID, cfg.Trend.LookbackMonths, time.Now().UTC())
	if err != nil {
		return err
	}

	cmd.Println(trend)
	return nil
}
