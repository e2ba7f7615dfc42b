package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/compose"
	"github.com/foxzi/disparo/internal/contacts"
	"github.com/foxzi/disparo/internal/display"
	"github.com/foxzi/disparo/internal/models"
)

var (
	listName        string
	listDescription string
	listPage        int
	listPageSize    int
	listYes         bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"lists"},
	Short:   "Recipient list commands",
}

var listLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recipient lists",
	RunE:  runListLs,
}

var listShowCmd = &cobra.Command{
	Use:   "show <list_id>",
	Short: "Show list details",
	Args:  cobra.ExactArgs(1),
	RunE:  runListShow,
}

var listContactsCmd = &cobra.Command{
	Use:   "contacts <list_id>",
	Short: "Show one page of a list's contacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runListContacts,
}

var listUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a .txt or .csv recipient file",
	Long: `Upload a recipient file. A .txt file holds one address per line; a .csv
file needs an "email" column and may have a "name" column. The service
processes the list in the background.`,
	Args: cobra.ExactArgs(1),
	RunE: runListUpload,
}

var listDeleteCmd = &cobra.Command{
	Use:   "delete <list_id>",
	Short: "Delete a list and its contacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runListDelete,
}

var listWatchCmd = &cobra.Command{
	Use:   "watch [list_id]",
	Short: "Follow the lists, or one list until it is processed",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runListWatch,
}

func init() {
	listContactsCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	listContactsCmd.Flags().IntVar(&listPageSize, "limit", 0, "Contacts per page (default from config)")
	listUploadCmd.Flags().StringVar(&listName, "name", "", "List name")
	listUploadCmd.Flags().StringVar(&listDescription, "description", "", "List description")
	listDeleteCmd.Flags().BoolVarP(&listYes, "yes", "y", false, "Do not ask for confirmation")

	listCmd.AddCommand(listLsCmd, listShowCmd, listContactsCmd, listUploadCmd, listDeleteCmd, listWatchCmd)
	rootCmd.AddCommand(listCmd)
}

func runListLs(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	lists, err := s.client.ListLists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list lists: %w", err)
	}
	printLists(lists)
	return nil
}

func printLists(lists []models.List) {
	if len(lists) == 0 {
		fmt.Println("No lists")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tTOTAL\tVALID\tINVALID\tCREATED")
	fmt.Fprintln(w, "--\t----\t------\t-----\t-----\t-------\t-------")
	for _, l := range lists {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			l.ID,
			truncate(l.Name, 40),
			l.Status,
			l.TotalCount,
			l.ValidCount,
			l.InvalidCount,
			l.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d lists\n", len(lists))
}

func printList(l *models.List) {
	fmt.Printf("List: %s\n\n", l.ID)
	fmt.Printf("Name:        %s\n", l.Name)
	if l.Description != "" {
		fmt.Printf("Description: %s\n", l.Description)
	}
	fmt.Printf("Status:      %s\n", l.Status)
	fmt.Printf("Total:       %d\n", l.TotalCount)
	fmt.Printf("Valid:       %d\n", l.ValidCount)
	fmt.Printf("Invalid:     %d\n", l.InvalidCount)
	fmt.Printf("Created:     %s\n", l.CreatedAt.Format(time.RFC3339))
}

func runListShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	l, err := s.client.GetList(ctx, models.ID(args[0]))
	if err != nil {
		return fmt.Errorf("failed to get list: %w", err)
	}
	printList(l)
	return nil
}

func runListContacts(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()
	s.printNotifications()

	ctx, cancel := interruptContext()
	defer cancel()

	size := listPageSize
	if size <= 0 {
		size = s.cfg.Contacts.PageSize
	}
	b := contacts.NewBrowser(s.client, models.ID(args[0]),
		contacts.WithPageSize(size),
		contacts.WithNotifier(s.feed),
		contacts.WithLogger(s.logger),
	)
	defer b.Close()

	page, err := b.Load(ctx, listPage)
	if err != nil {
		return err
	}

	if len(page.Contacts) == 0 {
		fmt.Println("No contacts")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tNAME\tSTATUS")
		fmt.Fprintln(w, "-----\t----\t------")
		for _, c := range page.Contacts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Email, c.Name, display.ContactBadge(c.IsValid).Label)
		}
		w.Flush()
	}
	fmt.Printf("\n%s (page %d of %d)\n",
		display.RangeLine(page.Number, page.Size, page.Total), page.Number, max(page.TotalPages, 1))
	return nil
}

func runListUpload(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()
	s.printNotifications()

	ctx, cancel := interruptContext()
	defer cancel()

	l, err := compose.SubmitUpload(ctx, s.client, compose.UploadForm{
		Name:        listName,
		Description: listDescription,
		Path:        args[0],
	}, s.feed)
	if err != nil {
		return err
	}

	fmt.Printf("List uploaded: %s (%s)\n", l.ID, l.Status)
	return nil
}

func runListDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	return s.dispatch(ctx, listYes, action.Request{
		Target: action.TargetList,
		Kind:   models.ActionDelete,
		ID:     models.ID(args[0]),
	})
}

func runListWatch(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		return watch(s, "lists", s.cfg.Polling.Lists, "lists", "Falha ao carregar listas",
			func(ctx context.Context, _ string) ([]models.List, error) {
				return s.client.ListLists(ctx)
			}, printLists, nil)
	}

	return watch(s, "list_detail", s.cfg.Polling.ListDetail, args[0], "Falha ao carregar detalhes da lista",
		func(ctx context.Context, id string) (*models.List, error) {
			return s.client.GetList(ctx, models.ID(id))
		}, printList, listProcessed)
}

func listProcessed(l *models.List) bool {
	return l.Status.Terminal()
}
