package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/findingthem/findingthem/internal/config"
	"github.com/findingthem/findingthem/internal/database"
	"github.com/findingthem/findingthem/internal/database/postgres"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import reports from a JSON file",
	Long: `Import reports from a JSON file into a chosen partition.
The file must contain a JSON array of report objects. Each report goes
through the same validation as a web submission; invalid entries are
skipped and listed at the end. Matching is not run for imported reports.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("file", "", "Path to the JSON file with reports (required)")
	importCmd.Flags().String("partition", string(database.PartitionPolice), "Target partition (civilian or police)")
	importCmd.Flags().String("account", "", "Account ID to file the reports under (required)")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("account")
}

// importEntry mirrors the submission form fields plus a stored photo path.
type importEntry struct {
	FullName         string `json:"full_name"`
	ApproximateAge   int    `json:"approximate_age"`
	Gender           string `json:"gender"`
	LastSeenLocation string `json:"last_seen_location"`
	AddressDetails   string `json:"address_details"`
	ContactInfo      string `json:"contact_info"`
	PersonStatus     string `json:"person_status"`
	Photo            string `json:"photo"`
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	partition := database.Partition(mustGetString(cmd, "partition"))
	if !partition.Valid() {
		return fmt.Errorf("invalid partition %q: must be civilian or police", partition)
	}
	accountID := mustGetString(cmd, "account")

	data, err := os.ReadFile(mustGetString(cmd, "file"))
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}
	var entries []importEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing import file: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Nothing to import")
		return nil
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	repo := postgres.NewReportRepository(pool)
	ctx := context.Background()

	bar := progressbar.Default(int64(len(entries)), "importing reports")
	var skipped []string
	for i, e := range entries {
		_, err := repo.Save(ctx, &database.Report{
			Partition:        partition,
			FullName:         e.FullName,
			ApproximateAge:   e.ApproximateAge,
			Gender:           e.Gender,
			LastSeenLocation: e.LastSeenLocation,
			AddressDetails:   e.AddressDetails,
			ContactInfo:      e.ContactInfo,
			PersonStatus:     e.PersonStatus,
			Photo:            e.Photo,
			AccountID:        accountID,
		})

		var validationErr *database.ValidationError
		if errors.As(err, &validationErr) {
			skipped = append(skipped, fmt.Sprintf("entry %d (%s): %v", i, e.FullName, err))
		} else if err != nil {
			// Storage failures abort the whole import.
			return fmt.Errorf("importing entry %d: %w", i, err)
		}
		_ = bar.Add(1)
	}

	fmt.Printf("Imported %d reports into the %s partition\n", len(entries)-len(skipped), partition)
	for _, s := range skipped {
		fmt.Printf("  skipped %s\n", s)
	}
	return nil
}
