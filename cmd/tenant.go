package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"device-access-control/internal/storage"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenant records",
	Long:  `List the tenant table and import a full replacement from a JSON file.`,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tenant records",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		tenants, err := service.ListTenants(ctx)
		if err != nil {
			slog.Error("Failed to list tenants", "error", err)
			os.Exit(1)
		}

		if len(tenants) == 0 {
			fmt.Println("No tenants found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TENANT ID\tNAME\tHWID\tSTATUS\tEXPIRES")
		for tenantID, tenant := range tenants {
			expires := "never"
			if tenant.ExpiryDate != 0 {
				expires = time.UnixMilli(tenant.ExpiryDate).Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				tenantID,
				tenant.Name,
				tenant.HWID,
				tenant.Status,
				expires,
			)
		}
		w.Flush()
	},
}

var tenantImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the tenant table from a JSON file",
	Long:  `Replace the whole tenant table with the mapping read from a JSON file keyed by tenant identifier.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		data, err := os.ReadFile(args[0])
		if err != nil {
			slog.Error("Failed to read tenant file", "file", args[0], "error", err)
			os.Exit(1)
		}

		var tenants map[string]storage.Tenant
		if err := json.Unmarshal(data, &tenants); err != nil {
			slog.Error("Failed to parse tenant file", "file", args[0], "error", err)
			os.Exit(1)
		}
		if tenants == nil {
			tenants = map[string]storage.Tenant{}
		}

		if err := service.SyncTenants(ctx, tenants); err != nil {
			slog.Error("Failed to import tenants", "error", err)
			os.Exit(1)
		}

		fmt.Printf("Imported %d tenant(s) from %s\n", len(tenants), args[0])
	},
}

func init() {
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantImportCmd)
	rootCmd.AddCommand(tenantCmd)
}
