package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"opsdeck/internal/app"
	"opsdeck/internal/config"
	"opsdeck/internal/db"
	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
	"opsdeck/internal/migrate"
	"opsdeck/internal/repo"
	"opsdeck/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "od",
	Short: "Opsdeck CLI",
	Long: `Opsdeck manages SOP documents, the work inventory and the organization design.
- SOPs: procedure documents with steps, a draft -> in_review -> approved -> effective
  lifecycle and immutable version snapshots (vMAJOR.MINOR).
- Work inventory: modules of tasks per department; modules derive a KPI score and a
  green/amber/red status, tasks derive controlled/uncontrolled from linked SOPs.
- Organization: three fixed tiers, RACI roles and a department hierarchy.
Without --workspace all state lives in memory and is lost on exit; point --workspace
at a directory to keep a .opsdeck database between runs.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("OPSDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", "", "workspace directory (empty = in-memory session)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().Bool("force", false, "force operation")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("force", rootCmd.PersistentFlags().Lookup("force"))
}

func registerCommands() {
	rootCmd.AddCommand(tierCmd())
	rootCmd.AddCommand(roleCmd())
	rootCmd.AddCommand(deptCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(sopCmd())
	rootCmd.AddCommand(moduleCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- tiers ---

func tierCmd() *cobra.Command {
	tier := &cobra.Command{Use: "tier", Short: "Organization tiers"}
	tier.AddCommand(tierListCmd())
	tier.AddCommand(tierSetCmd())
	return tier
}

func tierListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the three tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tiers, err := r.ListTiers(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(tiers)
			})
		},
	}
}

func tierSetCmd() *cobra.Command {
	var name, desc string
	cmd := &cobra.Command{
		Use:   "set <tier-id>",
		Short: "Relabel a tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.TierUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				t, err := e.UpdateTier(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "tier label")
	cmd.Flags().StringVar(&desc, "description", "", "tier description")
	return cmd
}

// --- roles ---

func roleCmd() *cobra.Command {
	role := &cobra.Command{Use: "role", Short: "Organization roles"}
	role.AddCommand(roleCreateCmd())
	role.AddCommand(roleListCmd())
	role.AddCommand(roleOptionsCmd())
	role.AddCommand(roleShowCmd())
	role.AddCommand(roleUpdateCmd())
	role.AddCommand(roleDeleteCmd())
	return role
}

func roleCreateCmd() *cobra.Command {
	var name, desc, tierID, raci string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				role, err := e.CreateRole(ctx, engine.RoleCreateOptions{
					Name:        name,
					Description: desc,
					TierID:      tierID,
					RaciType:    raci,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(role)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "role name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&tierID, "tier", "", "tier id (strategic, managerial, operational)")
	cmd.Flags().StringVar(&raci, "raci", "", "raci type (responsible, accountable, consulted, informed)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func roleListCmd() *cobra.Command {
	var tierID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				roles, err := e.RolesByTier(ctx, tierID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(roles)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Tier", "RACI"})
				for _, r := range roles {
					tw.AppendRow(table.Row{r.ID, r.Name, r.TierID, r.RaciType})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tierID, "tier", "", "tier filter")
	return cmd
}

func roleOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Role picker options (value is the role name)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts, err := e.RoleOptions(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(opts)
			})
		},
	}
}

func roleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <role-id>",
		Short: "Show role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				role, err := r.GetRole(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(role)
			})
		},
	}
}

func roleUpdateCmd() *cobra.Command {
	var name, desc, tierID, raci string
	cmd := &cobra.Command{
		Use:   "update <role-id>",
		Short: "Update role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.RoleUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				if cmd.Flags().Changed("tier") {
					opts.TierID = &tierID
				}
				if cmd.Flags().Changed("raci") {
					opts.RaciType = &raci
				}
				role, err := e.UpdateRole(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(role)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "role name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&tierID, "tier", "", "tier id")
	cmd.Flags().StringVar(&raci, "raci", "", "raci type")
	return cmd
}

func roleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <role-id>",
		Short: "Delete role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteRole(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

// --- departments ---

func deptCmd() *cobra.Command {
	dept := &cobra.Command{Use: "dept", Short: "Departments"}
	dept.AddCommand(deptCreateCmd())
	dept.AddCommand(deptListCmd())
	dept.AddCommand(deptShowCmd())
	dept.AddCommand(deptBreadcrumbsCmd())
	dept.AddCommand(deptUpdateCmd())
	dept.AddCommand(deptDeleteCmd())
	return dept
}

func deptCreateCmd() *cobra.Command {
	var name, desc, head, parent string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create department",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.CreateDepartment(ctx, engine.DepartmentCreateOptions{
					Name:             name,
					Description:      desc,
					HeadOfDepartment: head,
					ParentID:         parent,
					ActorID:          viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "department name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&head, "head", "", "head of department (role name)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent department id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func deptListCmd() *cobra.Command {
	var parent string
	var roots bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List departments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				var (
					items []domain.Department
					err   error
				)
				switch {
				case parent != "":
					items, err = r.ChildDepartments(ctx, parent)
				case roots:
					items, err = r.RootDepartments(ctx)
				default:
					items, err = r.ListDepartments(ctx)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Head", "Parent"})
				for _, d := range items {
					parentID := ""
					if d.ParentID != nil {
						parentID = *d.ParentID
					}
					tw.AppendRow(table.Row{d.ID, d.Name, d.HeadOfDepartment, parentID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "list children of this department")
	cmd.Flags().BoolVar(&roots, "roots", false, "list only root departments")
	return cmd
}

func deptShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dept-id>",
		Short: "Show department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				d, err := r.GetDepartment(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
}

func deptBreadcrumbsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breadcrumbs <dept-id>",
		Short: "Ancestry chain from root to department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				chain, err := e.DepartmentBreadcrumbs(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(chain)
				}
				names := make([]string, 0, len(chain))
				for _, d := range chain {
					names = append(names, d.Name)
				}
				fmt.Println(strings.Join(names, " > "))
				return nil
			})
		},
	}
}

func deptUpdateCmd() *cobra.Command {
	var name, desc, head, parent string
	var clearParent bool
	cmd := &cobra.Command{
		Use:   "update <dept-id>",
		Short: "Update department",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.DepartmentUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				if cmd.Flags().Changed("head") {
					opts.HeadOfDepartment = &head
				}
				if clearParent {
					opts.ParentProvided = true
				} else if cmd.Flags().Changed("parent") {
					opts.SetParent = &parent
					opts.ParentProvided = true
				}
				d, err := e.UpdateDepartment(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&name, "name", "", "department name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&head, "head", "", "head of department (role name)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent department id")
	cmd.Flags().BoolVar(&clearParent, "clear-parent", false, "promote to root")
	return cmd
}

func deptDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dept-id>",
		Short: "Delete department, promoting its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteDepartment(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

// --- business processes ---

func processCmd() *cobra.Command {
	p := &cobra.Command{Use: "process", Short: "Business processes"}
	p.AddCommand(processCreateCmd())
	p.AddCommand(processListCmd())
	p.AddCommand(processShowCmd())
	p.AddCommand(processUpdateCmd())
	p.AddCommand(processDeleteCmd())
	return p
}

func processCreateCmd() *cobra.Command {
	var name, desc string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create business process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProcess(ctx, engine.ProcessCreateOptions{
					Name:        name,
					Description: desc,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "process name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func processListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List business processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProcesses(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func processShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <process-id>",
		Short: "Show business process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProcess(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func processUpdateCmd() *cobra.Command {
	var name, desc string
	cmd := &cobra.Command{
		Use:   "update <process-id>",
		Short: "Update business process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ProcessUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				p, err := e.UpdateProcess(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "process name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	return cmd
}

func processDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <process-id>",
		Short: "Delete business process, keeping its SOPs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteProcess(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

// --- sops ---

func sopCmd() *cobra.Command {
	sop := &cobra.Command{Use: "sop", Short: "SOP documents"}
	sop.AddCommand(sopCreateCmd())
	sop.AddCommand(sopListCmd())
	sop.AddCommand(sopShowCmd())
	sop.AddCommand(sopUpdateCmd())
	sop.AddCommand(sopDeleteCmd())
	sop.AddCommand(sopTransitionCmd())
	sop.AddCommand(sopNewVersionCmd())
	sop.AddCommand(sopVersionsCmd())
	sop.AddCommand(sopStepCmd())
	sop.AddCommand(sopAnalyzeCmd())
	return sop
}

func sopCreateCmd() *cobra.Command {
	var title, format, owner, fileName, processID string
	var steps []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create SOP (starts as v0.1 draft)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var stepModels []domain.SOPStep
				for _, instruction := range steps {
					stepModels = append(stepModels, domain.SOPStep{Instruction: instruction})
				}
				s, err := e.CreateSop(ctx, engine.SopCreateOptions{
					Title:             title,
					Format:            format,
					Owner:             owner,
					Steps:             stepModels,
					FileName:          fileName,
					BusinessProcessID: processID,
					ActorID:           viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "sop title")
	cmd.Flags().StringVar(&format, "format", "block", "format (block, file)")
	cmd.Flags().StringVar(&owner, "owner", "", "owning role name")
	cmd.Flags().StringArrayVar(&steps, "step", []string{}, "step instruction (repeatable)")
	cmd.Flags().StringVar(&fileName, "file-name", "", "source document name")
	cmd.Flags().StringVar(&processID, "process", "", "business process id")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func sopListCmd() *cobra.Command {
	var processID, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List SOPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				sops, err := r.ListSops(ctx, processID, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sops)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Version", "Status", "Owner", "Effective"})
				for _, s := range sops {
					tw.AppendRow(table.Row{s.ID, s.Title, s.CurrentVersion, s.Status, s.Owner, s.EffectiveDate})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&processID, "process", "", "business process filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func sopShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sop-id>",
		Short: "Show SOP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				s, err := r.GetSop(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
}

func sopUpdateCmd() *cobra.Command {
	var title, format, owner, fileName, processID string
	var clearProcess bool
	cmd := &cobra.Command{
		Use:   "update <sop-id>",
		Short: "Update SOP fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.SopUpdateOptions{
					ID:           args[0],
					ClearProcess: clearProcess,
					ActorID:      viper.GetString("actor-id"),
					Force:        viper.GetBool("force"),
				}
				if cmd.Flags().Changed("title") {
					opts.Title = &title
				}
				if cmd.Flags().Changed("format") {
					opts.Format = &format
				}
				if cmd.Flags().Changed("owner") {
					opts.Owner = &owner
				}
				if cmd.Flags().Changed("file-name") {
					opts.FileName = &fileName
				}
				if cmd.Flags().Changed("process") {
					opts.BusinessProcessID = &processID
				}
				s, err := e.UpdateSop(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "sop title")
	cmd.Flags().StringVar(&format, "format", "", "format (block, file)")
	cmd.Flags().StringVar(&owner, "owner", "", "owning role name")
	cmd.Flags().StringVar(&fileName, "file-name", "", "source document name")
	cmd.Flags().StringVar(&processID, "process", "", "business process id")
	cmd.Flags().BoolVar(&clearProcess, "clear-process", false, "detach from its business process")
	return cmd
}

func sopDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <sop-id>",
		Short: "Delete SOP and its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteSop(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func sopTransitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transition <sop-id> <status>",
		Short: "Move SOP to the next lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.TransitionStatus(ctx, args[0], args[1], viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
}

func sopNewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-version <sop-id>",
		Short: "Cut the next major version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.CreateNewVersion(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
}

func sopVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <sop-id>",
		Short: "List version snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				versions, err := e.SopVersions(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(versions)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Version", "Status", "Created", "By", "Steps"})
				for _, v := range versions {
					tw.AppendRow(table.Row{v.Version, v.Status, v.CreatedAt, v.CreatedBy, len(v.Steps)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func sopStepCmd() *cobra.Command {
	step := &cobra.Command{Use: "step", Short: "SOP steps"}
	step.AddCommand(sopStepAddCmd())
	step.AddCommand(sopStepUpdateCmd())
	step.AddCommand(sopStepRemoveCmd())
	step.AddCommand(sopStepReorderCmd())
	return step
}

func sopStepAddCmd() *cobra.Command {
	var instruction string
	var photo, evidence, measurement bool
	cmd := &cobra.Command{
		Use:   "add <sop-id>",
		Short: "Append a step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.AddStep(ctx, args[0], engine.StepOptions{
					Instruction:         &instruction,
					RequirePhoto:        &photo,
					RequireEvidenceFile: &evidence,
					RequireMeasurement:  &measurement,
				}, viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&instruction, "instruction", "", "step instruction")
	cmd.Flags().BoolVar(&photo, "require-photo", false, "require a photo")
	cmd.Flags().BoolVar(&evidence, "require-evidence", false, "require an evidence file")
	cmd.Flags().BoolVar(&measurement, "require-measurement", false, "require a measurement")
	_ = cmd.MarkFlagRequired("instruction")
	return cmd
}

func sopStepUpdateCmd() *cobra.Command {
	var instruction string
	var photo, evidence, measurement bool
	cmd := &cobra.Command{
		Use:   "update <sop-id> <step-id>",
		Short: "Update a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.StepOptions{}
				if cmd.Flags().Changed("instruction") {
					opts.Instruction = &instruction
				}
				if cmd.Flags().Changed("require-photo") {
					opts.RequirePhoto = &photo
				}
				if cmd.Flags().Changed("require-evidence") {
					opts.RequireEvidenceFile = &evidence
				}
				if cmd.Flags().Changed("require-measurement") {
					opts.RequireMeasurement = &measurement
				}
				s, err := e.UpdateStep(ctx, args[0], args[1], opts, viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&instruction, "instruction", "", "step instruction")
	cmd.Flags().BoolVar(&photo, "require-photo", false, "require a photo")
	cmd.Flags().BoolVar(&evidence, "require-evidence", false, "require an evidence file")
	cmd.Flags().BoolVar(&measurement, "require-measurement", false, "require a measurement")
	return cmd
}

func sopStepRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <sop-id> <step-id>",
		Short: "Remove a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.RemoveStep(ctx, args[0], args[1], viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
}

func sopStepReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <sop-id> <step-id>...",
		Short: "Reorder steps to the given id sequence",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.ReorderSteps(ctx, args[0], args[1:], viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
}

func sopAnalyzeCmd() *cobra.Command {
	var file string
	var extractSteps bool
	cmd := &cobra.Command{
		Use:   "analyze <sop-id>",
		Short: "Analyze a SOP document with the external service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.AnalyzeSop(ctx, engine.AnalyzeOptions{
					SopID:        args[0],
					FileName:     file,
					FileContent:  string(content),
					ExtractSteps: extractSteps,
					ActorID:      viper.GetString("actor-id"),
					Force:        viper.GetBool("force"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "document to analyze")
	cmd.Flags().BoolVar(&extractSteps, "extract-steps", false, "append extracted steps")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// --- modules ---

func moduleCmd() *cobra.Command {
	module := &cobra.Command{Use: "module", Short: "Work modules"}
	module.AddCommand(moduleCreateCmd())
	module.AddCommand(moduleListCmd())
	module.AddCommand(moduleShowCmd())
	module.AddCommand(moduleUpdateCmd())
	module.AddCommand(moduleDeleteCmd())
	return module
}

func moduleCreateCmd() *cobra.Command {
	var dept, name, desc, owner, risk string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create work module",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.CreateModule(ctx, engine.ModuleCreateOptions{
					DepartmentID: dept,
					Name:         name,
					Description:  desc,
					Owner:        owner,
					RiskLevel:    risk,
					ActorID:      viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&dept, "dept", "", "department id")
	cmd.Flags().StringVar(&name, "name", "", "module name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&owner, "owner", "", "owning role name")
	cmd.Flags().StringVar(&risk, "risk", "", "risk level (low, medium, high, critical)")
	_ = cmd.MarkFlagRequired("dept")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func moduleListCmd() *cobra.Command {
	var dept string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules with KPI and RAG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListModulesWithStats(ctx, dept)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Dept", "Tasks", "KPI", "RAG"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.Module.ID, s.Module.Name, s.Module.DepartmentID, s.TaskCount, s.KpiScore, s.RagStatus})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dept, "dept", "", "department filter")
	return cmd
}

func moduleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <module-id>",
		Short: "Show module with KPI and RAG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats, err := e.ModuleWithStats(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(stats)
			})
		},
	}
}

func moduleUpdateCmd() *cobra.Command {
	var dept, name, desc, owner, risk string
	cmd := &cobra.Command{
		Use:   "update <module-id>",
		Short: "Update module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ModuleUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("dept") {
					opts.DepartmentID = &dept
				}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				if cmd.Flags().Changed("owner") {
					opts.Owner = &owner
				}
				if cmd.Flags().Changed("risk") {
					opts.RiskLevel = &risk
				}
				m, err := e.UpdateModule(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&dept, "dept", "", "department id")
	cmd.Flags().StringVar(&name, "name", "", "module name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&owner, "owner", "", "owning role name")
	cmd.Flags().StringVar(&risk, "risk", "", "risk level")
	return cmd
}

func moduleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <module-id>",
		Short: "Delete module and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteModule(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

// --- tasks ---

func taskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Work tasks"}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskUpdateCmd())
	task.AddCommand(taskDeleteCmd())
	task.AddCommand(taskSuggestIOCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var module, operation, name, desc, owner, risk, status string
	var linkedSops []string
	var suggestIO bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create work task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
					ModuleID:     module,
					Operation:    operation,
					Name:         name,
					Description:  desc,
					Owner:        owner,
					RiskLevel:    risk,
					Status:       status,
					LinkedSopIDs: linkedSops,
					SuggestIO:    suggestIO,
					ActorID:      viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "module id")
	cmd.Flags().StringVar(&operation, "operation", "", "operation grouping")
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&owner, "owner", "", "owning role name")
	cmd.Flags().StringVar(&risk, "risk", "", "risk level (low, medium, high, critical)")
	cmd.Flags().StringVar(&status, "status", "", "status (not_started, in_progress, completed)")
	cmd.Flags().StringArrayVar(&linkedSops, "sop", []string{}, "linked sop id (repeatable)")
	cmd.Flags().BoolVar(&suggestIO, "suggest-io", false, "prefill inputs/outputs from the task name")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func taskListCmd() *cobra.Command {
	var module string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tasks, err := r.ListTasks(ctx, module)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Module", "Status", "Control", "SOPs"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{t.ID, t.Name, t.ModuleID, t.Status, engine.TaskControlStatus(t), len(t.LinkedSopIDs)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "module filter")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				t, err := r.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskUpdateCmd() *cobra.Command {
	var operation, name, desc, owner, risk, status string
	var linkedSops []string
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.TaskUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("operation") {
					opts.Operation = &operation
				}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				if cmd.Flags().Changed("owner") {
					opts.Owner = &owner
				}
				if cmd.Flags().Changed("risk") {
					opts.RiskLevel = &risk
				}
				if cmd.Flags().Changed("status") {
					opts.Status = &status
				}
				if cmd.Flags().Changed("sop") {
					opts.LinkedSopIDs = linkedSops
					opts.LinkedSopIDProvided = true
				}
				t, err := e.UpdateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&operation, "operation", "", "operation grouping")
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&owner, "owner", "", "owning role name")
	cmd.Flags().StringVar(&risk, "risk", "", "risk level")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringArrayVar(&linkedSops, "sop", []string{}, "linked sop id (repeatable, replaces the set)")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteTask(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func taskSuggestIOCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest-io <name>",
		Short: "Preview suggested inputs/outputs for a task name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				inputs, outputs := e.SuggestTaskIO(args[0])
				return printJSONOrTable(map[string]any{
					"inputs":  inputs,
					"outputs": outputs,
				})
			})
		},
	}
}

// --- audit / log ---

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report references to deleted entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				refs, err := e.DanglingReferences(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(refs)
				}
				if len(refs) == 0 {
					fmt.Println("no dangling references")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Kind", "ID", "Field", "Missing"})
				for _, ref := range refs {
					tw.AppendRow(table.Row{ref.EntityKind, ref.EntityID, ref.Field, ref.Missing})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

// --- config ---

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Configuration"}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configImportCmd())
	cfg.AddCommand(configInitCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				cfg, err := app.ResolveConfig(ctx, r)
				if err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
}

func configImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import configuration from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(file)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.UpsertConfig(ctx, cfg); err != nil {
					return err
				}
				fmt.Printf("Imported config from %s\n", file)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "config yaml file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func configInitCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return os.WriteFile(out, []byte(config.GenerateDefault()), 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "opsdeck.yml", "output path")
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			cfg, err := app.ResolveConfig(cmd.Context(), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Opsdeck API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	cfg, err := app.ResolveConfig(ctx, r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
