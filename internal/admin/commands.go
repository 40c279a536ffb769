package admin

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/otcheredev/clinical-records-api/internal/models"
)

// NewRootCommand builds the recordsctl command tree on top of svc
func NewRootCommand(svc *Service) *cobra.Command {
	root := &cobra.Command{
		Use:           "recordsctl",
		Short:         "Administer tenants, users and audit trails of the clinical records API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTenantCommand(svc),
		newUserCommand(svc),
		newAuditCommand(svc),
	)
	return root
}

// tenantFlags holds the tenant setting flags shared by create and update
type tenantFlags struct {
	name    string
	kind    string
	premium bool
	partial bool
	hipaa   bool
	records string
	visible []string
}

func (f *tenantFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "tenant name")
	flags.StringVar(&f.kind, "type", string(models.TenantTypeHospital), "tenant type (hospital, clinic, mobile_app)")
	flags.BoolVar(&f.premium, "premium", false, "premium tenant (audited)")
	flags.BoolVar(&f.partial, "allow-partial", true, "only require email on patient writes")
	flags.BoolVar(&f.hipaa, "hipaa", false, "store SSNs as structured ssn_data")
	flags.StringVar(&f.records, "records", string(models.RecordsTypeRigid), "record shape (rigid, flexible)")
	flags.StringSliceVar(&f.visible, "visible", []string{models.VisibleAll}, "readable patient fields, or \"all\"")
}

// changes returns only the settings given on the command line
func (f *tenantFlags) changes(cmd *cobra.Command) TenantChanges {
	var c TenantChanges
	flags := cmd.Flags()
	if flags.Changed("name") {
		c.Name = &f.name
	}
	if flags.Changed("type") {
		kind := models.TenantType(f.kind)
		c.Type = &kind
	}
	if flags.Changed("premium") {
		c.Premium = &f.premium
	}
	if flags.Changed("allow-partial") {
		c.AllowPartialPatients = &f.partial
	}
	if flags.Changed("hipaa") {
		c.SSNHIPAAMandatory = &f.hipaa
	}
	if flags.Changed("records") {
		records := models.RecordsType(f.records)
		c.RecordsType = &records
	}
	if flags.Changed("visible") {
		visible := models.VisibleFields(f.visible)
		c.VisibleFields = &visible
	}
	return c
}

func newTenantCommand(svc *Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	var createFlags tenantFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := svc.CreateTenant(cmd.Context(), createFlags.name, createFlags.changes(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tenant)
		},
	}
	createFlags.register(create)
	create.MarkFlagRequired("name")

	show := &cobra.Command{
		Use:   "show <tenant-id>",
		Short: "Show a tenant's stored configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tenant", args[0])
			if err != nil {
				return err
			}
			tenant, err := svc.Tenant(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tenant)
		},
	}

	var updateFlags tenantFlags
	update := &cobra.Command{
		Use:   "update <tenant-id>",
		Short: "Change tenant settings and drop its cached snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tenant", args[0])
			if err != nil {
				return err
			}
			tenant, err := svc.UpdateTenant(cmd.Context(), id, updateFlags.changes(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tenant)
		},
	}
	updateFlags.register(update)

	flush := &cobra.Command{
		Use:   "flush-cache",
		Short: "Drop every cached tenant snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.FlushTenantCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tenant cache flushed")
			return nil
		},
	}

	cmd.AddCommand(create, show, update, flush)
	return cmd
}

func newUserCommand(svc *Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var tenant string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an active user, optionally assigned to a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tenantID *uuid.UUID
			if tenant != "" {
				id, err := parseID("tenant", tenant)
				if err != nil {
					return err
				}
				tenantID = &id
			}
			user, err := svc.CreateUser(cmd.Context(), args[0], tenantID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	create.Flags().StringVar(&tenant, "tenant", "", "tenant id to assign the user to")

	cmd.AddCommand(
		create,
		newSetActiveCommand(svc, "activate", true),
		newSetActiveCommand(svc, "deactivate", false),
	)
	return cmd
}

func newSetActiveCommand(svc *Service, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: fmt.Sprintf("Mark a user %sd", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			if err := svc.SetUserActive(cmd.Context(), id, active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s %sd\n", id, use)
			return nil
		},
	}
}

func newAuditCommand(svc *Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect audit trails",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list <tenant-id>",
		Short: "List a tenant's audit entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tenant", args[0])
			if err != nil {
				return err
			}
			logs, err := svc.AuditTrail(cmd.Context(), id, limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), logs)
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	list.Flags().IntVar(&offset, "offset", 0, "number of entries to skip")

	object := &cobra.Command{
		Use:   "object <tenant-id> <model> <object-id>",
		Short: "Show the audit history of one patient or record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseID("tenant", args[0])
			if err != nil {
				return err
			}
			objectID, err := parseID("object", args[2])
			if err != nil {
				return err
			}
			logs, err := svc.ObjectHistory(cmd.Context(), tenantID, args[1], objectID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), logs)
		},
	}

	cmd.AddCommand(list, object)
	return cmd
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, raw, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
