package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codefactory/guard/internal/db"
	"github.com/codefactory/guard/internal/guard"
	"github.com/codefactory/guard/internal/output"
)

var flagAuditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.OpenAndMigrate(GetDB())
		if err != nil {
			return err
		}
		defer database.Close()

		records, err := database.ListRecords(flagAuditLimit)
		if err != nil {
			return err
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()))
			return out.Write(records)
		case "text":
			if len(records) == 0 {
				fmt.Println("no audit records")
				return nil
			}
			for _, rec := range records {
				printRecordLine(rec)
			}
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}
	},
}

var auditShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one audit record in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.OpenAndMigrate(GetDB())
		if err != nil {
			return err
		}
		defer database.Close()

		rec, err := database.GetRecord(args[0])
		if err != nil {
			return err
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()))
			return out.Write(rec)
		case "text":
			printRecordFull(rec)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}
	},
}

func printRecordLine(rec *guard.AuditRecord) {
	fmt.Println(formatRecordLine(rec))
}

func formatRecordLine(rec *guard.AuditRecord) string {
	verdict := "BLOCKED"
	if rec.Approved {
		verdict = "APPROVED"
	}
	desc := rec.Description
	if len(desc) > 60 {
		desc = desc[:57] + "..."
	}
	// IDs are normally UUIDs, but rows written with an explicit short ID
	// must not break the listing.
	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s  %s  %-8s  %.2f  %s",
		id, rec.Timestamp.Format(time.RFC3339), verdict,
		rec.ConfidenceScore, desc)
}

func printRecordFull(rec *guard.AuditRecord) {
	fmt.Printf("id:          %s\n", rec.ID)
	fmt.Printf("timestamp:   %s\n", rec.Timestamp.Format(time.RFC3339Nano))
	fmt.Printf("approved:    %t\n", rec.Approved)
	fmt.Printf("confidence:  %.2f\n", rec.ConfidenceScore)
	fmt.Printf("description: %s\n", rec.Description)
	fmt.Printf("normalized:  %s\n", rec.NormalizedText)
	printList("patterns", rec.PatternsMatched)
	printList("bypass", rec.BypassAttempts)
	printList("semantic", rec.SemanticFlags)
	printList("whitelist", rec.WhitelistViolations)
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, item := range items {
		fmt.Printf("  - %s\n", strings.TrimSpace(item))
	}
}

func init() {
	auditListCmd.Flags().IntVarP(&flagAuditLimit, "limit", "n", 20, "maximum records to list (0 = all)")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditShowCmd)

	rootCmd.AddCommand(auditCmd)
}
