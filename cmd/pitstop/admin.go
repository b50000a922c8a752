package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zulandar/pitstop/internal/auth"
	"github.com/zulandar/pitstop/internal/config"
	"github.com/zulandar/pitstop/internal/org"
	"golang.org/x/term"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}
	cmd.AddCommand(newCreateOrgCmd())
	return cmd
}

func newCreateOrgCmd() *cobra.Command {
	var (
		configPath   string
		name         string
		address      string
		managerName  string
		managerPhone string
		email        string
	)

	cmd := &cobra.Command{
		Use:   "create-org",
		Short: "Create a garage and its founding manager",
		Long:  "Creates an organization with a fresh garage code and a SUPER_MANAGER profile. The manager's password is prompted for, never passed as a flag.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateOrg(cmd.OutOrStdout(), configPath, org.CreateOpts{
				Name:         name,
				Address:      address,
				ManagerName:  managerName,
				ManagerPhone: managerPhone,
				Email:        email,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pitstop.yaml", "path to Pitstop config file")
	cmd.Flags().StringVar(&name, "name", "", "garage name")
	cmd.Flags().StringVar(&address, "address", "", "garage address")
	cmd.Flags().StringVar(&managerName, "manager-name", "", "founding manager's name")
	cmd.Flags().StringVar(&managerPhone, "manager-phone", "", "founding manager's phone (05X-XXXXXXX)")
	cmd.Flags().StringVar(&email, "email", "", "founding manager's email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("manager-name")
	cmd.MarkFlagRequired("manager-phone")
	return cmd
}

func runCreateOrg(out io.Writer, configPath string, opts org.CreateOpts) error {
	godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	password, err := promptPassword(out)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	opts.PasswordHash = hash

	opts.ManagerID, err = org.GenerateProfileID()
	if err != nil {
		return err
	}

	gormDB, err := connectDB(cfg)
	if err != nil {
		return err
	}

	o, p, err := org.Create(gormDB, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created garage %q\n", o.Name)
	fmt.Fprintf(out, "  Org ID:       %s\n", o.ID)
	fmt.Fprintf(out, "  Garage code:  %s\n", o.GarageCode)
	fmt.Fprintf(out, "  Manager:      %s (%s)\n", p.Name, org.FormatPhone(p.Phone))
	return nil
}

// promptPassword reads the password from the terminal without echo, with a
// confirmation pass.
func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("admin: stdin is not a terminal, cannot prompt for password")
	}

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("admin: read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("admin: read password confirmation: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("admin: passwords do not match")
	}
	return string(first), nil
}
