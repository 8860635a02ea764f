package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"device-access-control/internal/authz"
	"device-access-control/internal/storage"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Review device authorization requests",
	Long:  `List, approve, and deny device authorization requests from the ledger.`,
}

var requestListCmd = &cobra.Command{
	Use:   "list [status]",
	Short: "List ledger entries",
	Long:  `List request ledger entries by review status. Valid statuses: pending, approved, denied. Defaults to all.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		var filter storage.ReviewStatus
		if len(args) > 0 {
			switch args[0] {
			case "pending":
				filter = storage.ReviewStatusPending
			case "approved":
				filter = storage.ReviewStatusApproved
			case "denied":
				filter = storage.ReviewStatusDenied
			default:
				slog.Error("Invalid status", "status", args[0])
				fmt.Println("Valid statuses: pending, approved, denied")
				os.Exit(1)
			}
		}

		requests, err := service.ListRequests(ctx)
		if err != nil {
			slog.Error("Failed to list requests", "error", err)
			os.Exit(1)
		}

		if filter != "" {
			filtered := requests[:0]
			for _, req := range requests {
				if req.Status == filter {
					filtered = append(filtered, req)
				}
			}
			requests = filtered
		}

		if len(requests) == 0 {
			fmt.Println("No requests found")
			return
		}

		// Print table
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HWID\tHOSTNAME\tOS\tSUBMITTED AT\tSTATUS")
		for _, req := range requests {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				req.HWID,
				req.Hostname,
				req.OS,
				req.SubmittedAt.Format("2006-01-02 15:04:05"),
				req.Status,
			)
		}
		w.Flush()
	},
}

var requestApproveCmd = &cobra.Command{
	Use:   "approve <hwid>",
	Short: "Approve a device",
	Long:  `Approve a device by HWID, creating or re-enabling its tenant record and marking the ledger entry approved.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		hwid := args[0]

		name, _ := cmd.Flags().GetString("name")
		resourceURL, _ := cmd.Flags().GetString("resource-url")
		expires, _ := cmd.Flags().GetInt("expires")

		var expiryDate int64
		if expires > 0 {
			expiryDate = time.Now().AddDate(0, 0, expires).UnixMilli()
		}

		tenantID, err := service.Approve(ctx, authz.ApproveParams{
			HWID:        hwid,
			Name:        name,
			ResourceURL: resourceURL,
			ExpiryDate:  expiryDate,
		})
		if err != nil {
			slog.Error("Failed to approve device", "hwid", hwid, "error", err)
			os.Exit(1)
		}

		fmt.Printf("Device %s approved as tenant %s\n", hwid, tenantID)
	},
}

var requestDenyCmd = &cobra.Command{
	Use:   "deny <hwid>",
	Short: "Deny a device",
	Long:  `Deny a device by HWID. Any existing tenant record for the HWID is removed and the ledger entry is marked denied.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		hwid := args[0]

		if err := service.Deny(ctx, hwid); err != nil {
			slog.Error("Failed to deny device", "hwid", hwid, "error", err)
			os.Exit(1)
		}

		fmt.Printf("Device %s denied\n", hwid)
	},
}

func init() {
	requestApproveCmd.Flags().StringP("name", "n", "", "Display name for the tenant record")
	requestApproveCmd.Flags().StringP("resource-url", "u", "", "Resource URL released to the device")
	requestApproveCmd.Flags().IntP("expires", "e", 0, "Authorization lifetime in days (0 = never expires)")

	requestCmd.AddCommand(requestListCmd)
	requestCmd.AddCommand(requestApproveCmd)
	requestCmd.AddCommand(requestDenyCmd)
	rootCmd.AddCommand(requestCmd)
}
