package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/compose"
	"github.com/foxzi/disparo/internal/models"
)

var (
	templateName    string
	templateSubject string
	templateText    string
	templateFile    string
	templateYes     bool
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Message template commands",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show <template_id>",
	Short: "Show a template and its content",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a plain text template",
	RunE:  runTemplateCreate,
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <template_id>",
	Short: "Update a template; omitted flags keep the current values",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateUpdate,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <template_id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateDelete,
}

func init() {
	for _, c := range []*cobra.Command{templateCreateCmd, templateUpdateCmd} {
		c.Flags().StringVar(&templateName, "name", "", "Template name")
		c.Flags().StringVar(&templateSubject, "subject", "", "Message subject")
		c.Flags().StringVar(&templateText, "text", "", "Message content")
		c.Flags().StringVar(&templateFile, "file", "", "Read message content from file")
		c.MarkFlagsMutuallyExclusive("text", "file")
	}
	templateDeleteCmd.Flags().BoolVarP(&templateYes, "yes", "y", false, "Do not ask for confirmation")

	templateCmd.AddCommand(templateListCmd, templateShowCmd, templateCreateCmd, templateUpdateCmd, templateDeleteCmd)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	templates, err := s.client.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	if len(templates) == 0 {
		fmt.Println("No templates")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSUBJECT\tUPDATED")
	fmt.Fprintln(w, "--\t----\t-------\t-------")
	for _, t := range templates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			t.ID,
			truncate(t.Name, 32),
			truncate(t.Subject, 48),
			t.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d templates\n", len(templates))
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	t, err := s.client.GetTemplate(ctx, models.ID(args[0]))
	if err != nil {
		return fmt.Errorf("failed to get template: %w", err)
	}

	fmt.Printf("Template: %s\n\n", t.ID)
	fmt.Printf("Name:    %s\n", t.Name)
	fmt.Printf("Subject: %s\n", t.Subject)
	fmt.Printf("Created: %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated: %s\n", t.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("\n%s\n", t.TextContent)
	return nil
}

// applyTemplateFlags overrides form fields with the flags the user set
func applyTemplateFlags(cmd *cobra.Command, f *compose.TemplateForm) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		f.Name = templateName
	}
	if flags.Changed("subject") {
		f.Subject = templateSubject
	}
	if flags.Changed("text") {
		f.TextContent = templateText
	}
	if flags.Changed("file") {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		f.TextContent = string(data)
	}
	return nil
}

func runTemplateCreate(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()
	s.printNotifications()

	ctx, cancel := interruptContext()
	defer cancel()

	var form compose.TemplateForm
	if err := applyTemplateFlags(cmd, &form); err != nil {
		return err
	}

	t, err := compose.SubmitTemplate(ctx, s.client, "", form, s.feed)
	if err != nil {
		return err
	}
	fmt.Printf("Template created: %s\n", t.ID)
	return nil
}

func runTemplateUpdate(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()
	s.printNotifications()

	ctx, cancel := interruptContext()
	defer cancel()

	id := models.ID(args[0])
	current, err := s.client.GetTemplate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get template: %w", err)
	}

	form := compose.TemplateFormFrom(*current)
	if err := applyTemplateFlags(cmd, &form); err != nil {
		return err
	}

	t, err := compose.SubmitTemplate(ctx, s.client, id, form, s.feed)
	if err != nil {
		return err
	}
	fmt.Printf("Template updated: %s\n", t.ID)
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	return s.dispatch(ctx, templateYes, action.Request{
		Target: action.TargetTemplate,
		Kind:   models.ActionDelete,
		ID:     models.ID(args[0]),
	})
}
