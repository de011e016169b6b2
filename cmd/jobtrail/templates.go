package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/templates"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/spf13/cobra"
)

var (
	templatesUser string
	templatesType string
	renderID      string
	renderName    string
	renderVars    map[string]string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List and render message templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in templates, plus a user's own with --user",
	RunE:  runTemplatesList,
}

var templatesRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a template with variables",
	Long:  `Render a template selected by --id or by built-in --name. Placeholders without a --var stay as-is.`,
	RunE:  runTemplatesRender,
}

func init() {
	templatesCmd.PersistentFlags().StringVar(&templatesUser, "user", "", "Owner id (uuid) to include personal templates")
	templatesListCmd.Flags().StringVar(&templatesType, "type", "", "Only templates of this type (followup, reconnection, application, interview)")
	templatesRenderCmd.Flags().StringVar(&renderID, "id", "", "Template id")
	templatesRenderCmd.Flags().StringVar(&renderName, "name", "", "Built-in template name")
	templatesRenderCmd.Flags().StringToStringVar(&renderVars, "var", nil, "Variable as key=value (repeatable)")
	templatesRenderCmd.MarkFlagsMutuallyExclusive("id", "name")

	templatesCmd.AddCommand(templatesListCmd, templatesRenderCmd)
	rootCmd.AddCommand(templatesCmd)
}

func runTemplatesList(cmd *cobra.Command, _ []string) error {
	var typ *types.TemplateType
	if templatesType != "" {
		t, err := types.ParseTemplateType(templatesType)
		if err != nil {
			return err
		}
		typ = &t
	}

	var list []types.Template
	if templatesUser == "" {
		if typ == nil {
			list = templates.Builtins()
		} else {
			list = templates.ByType(*typ)
		}
	} else {
		owner, err := parseOwner(templatesUser)
		if err != nil {
			return err
		}
		rt, err := openRuntime(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()
		if list, err = rt.svc.Templates.List(cmd.Context(), owner, typ); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tNAME\tVARIABLES\tFLAGS")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Type, t.Name, strings.Join(t.Variables, ","), templateFlags(&t))
	}
	return w.Flush()
}

func templateFlags(t *types.Template) string {
	var flags []string
	if t.Builtin() {
		flags = append(flags, "builtin")
	}
	if t.IsDefault {
		flags = append(flags, "default")
	}
	if !t.IsActive {
		flags = append(flags, "inactive")
	}
	return strings.Join(flags, ",")
}

func runTemplatesRender(cmd *cobra.Command, _ []string) error {
	var t *types.Template
	switch {
	case renderName != "":
		b, ok := templates.BuiltinByID(templates.BuiltinID(renderName))
		if !ok {
			return fmt.Errorf("no built-in template named %q", renderName)
		}
		t = &b
	case renderID != "":
		id, err := uuid.Parse(renderID)
		if err != nil {
			return fmt.Errorf("invalid --id %q: %w", renderID, err)
		}
		if b, ok := templates.BuiltinByID(id); ok {
			t = &b
			break
		}
		owner, err := parseOwner(templatesUser)
		if err != nil {
			return err
		}
		rt, err := openRuntime(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()
		if t, err = rt.svc.Templates.Get(cmd.Context(), owner, id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("one of --id or --name is required")
	}

	if report := templates.Lint(t); len(report.Undeclared) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: undeclared placeholders: %s\n", strings.Join(report.Undeclared, ", "))
	}

	r := templates.Render(t, renderVars)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subject: %s\n\n%s\n", r.Subject, r.Body)
	return nil
}
