package main

import (
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zulandar/pitstop/internal/config"
	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

func newStatusCmd() *cobra.Command {
	var (
		configPath string
		orgID      string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show workload status",
		Long:  "Displays task counts per status, pending appointments and open proposals, for one garage or the whole database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), configPath, orgID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pitstop.yaml", "path to Pitstop config file")
	cmd.Flags().StringVar(&orgID, "org", "", "limit to one organization (g-xxxxx)")
	return cmd
}

func runStatus(out io.Writer, configPath, orgID string) error {
	godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := connectDB(cfg)
	if err != nil {
		return err
	}

	scoped := func(q *gorm.DB) *gorm.DB {
		if orgID != "" {
			return q.Where("org_id = ?", orgID)
		}
		return q
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err = scoped(gormDB.Model(&models.Task{})).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status").
		Scan(&counts).Error
	if err != nil {
		return fmt.Errorf("status: count tasks: %w", err)
	}

	var pendingAppointments int64
	if err := scoped(gormDB.Model(&models.Appointment{})).
		Where("status = ?", models.AppointmentPending).
		Count(&pendingAppointments).Error; err != nil {
		return fmt.Errorf("status: count appointments: %w", err)
	}

	var openProposals int64
	if err := scoped(gormDB.Model(&models.Proposal{})).
		Where("status IN ?", []string{models.ProposalPendingManager, models.ProposalPendingCustomer}).
		Count(&openProposals).Error; err != nil {
		return fmt.Errorf("status: count proposals: %w", err)
	}

	fmt.Fprintln(out, "Tasks:")
	if len(counts) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, c := range counts {
		fmt.Fprintf(out, "  %-22s %d\n", c.Status, c.Count)
	}
	fmt.Fprintf(out, "Pending appointments:  %d\n", pendingAppointments)
	fmt.Fprintf(out, "Open proposals:        %d\n", openProposals)
	return nil
}
