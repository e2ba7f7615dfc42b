package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/compose"
	"github.com/foxzi/disparo/internal/display"
	"github.com/foxzi/disparo/internal/models"
)

var (
	campaignName       string
	campaignTemplate   string
	campaignList       string
	campaignDailyLimit string
	campaignYes        bool
)

var campaignCmd = &cobra.Command{
	Use:     "campaign",
	Aliases: []string{"campaigns"},
	Short:   "Campaign management commands",
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE:  runCampaignList,
}

var campaignShowCmd = &cobra.Command{
	Use:   "show <campaign_id>",
	Short: "Show campaign details and stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignShow,
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft campaign",
	RunE:  runCampaignCreate,
}

var campaignStartCmd = &cobra.Command{
	Use:   "start <campaign_id>",
	Short: "Start a draft campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  campaignTransition(models.ActionStart),
}

var campaignPauseCmd = &cobra.Command{
	Use:   "pause <campaign_id>",
	Short: "Pause an active campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  campaignTransition(models.ActionPause),
}

var campaignResumeCmd = &cobra.Command{
	Use:   "resume <campaign_id>",
	Short: "Resume a paused campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  campaignTransition(models.ActionResume),
}

var campaignDeleteCmd = &cobra.Command{
	Use:   "delete <campaign_id>",
	Short: "Delete a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignDelete,
}

var campaignWatchCmd = &cobra.Command{
	Use:   "watch [campaign_id]",
	Short: "Follow the campaign list, or one campaign until it completes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCampaignWatch,
}

func init() {
	campaignCreateCmd.Flags().StringVar(&campaignName, "name", "", "Campaign name")
	campaignCreateCmd.Flags().StringVar(&campaignTemplate, "template", "", "Template ID")
	campaignCreateCmd.Flags().StringVar(&campaignList, "list", "", "Recipient list ID (must be processed)")
	campaignCreateCmd.Flags().StringVar(&campaignDailyLimit, "daily-limit", fmt.Sprint(compose.DefaultDailyLimit), "Emails sent per day (1-10000)")
	campaignDeleteCmd.Flags().BoolVarP(&campaignYes, "yes", "y", false, "Do not ask for confirmation")

	campaignCmd.AddCommand(campaignListCmd, campaignShowCmd, campaignCreateCmd,
		campaignStartCmd, campaignPauseCmd, campaignResumeCmd, campaignDeleteCmd, campaignWatchCmd)
	rootCmd.AddCommand(campaignCmd)
}

func runCampaignList(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	campaigns, err := s.client.ListCampaigns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}
	printCampaigns(campaigns)
	return nil
}

func printCampaigns(campaigns []models.Campaign) {
	if len(campaigns) == 0 {
		fmt.Println("No campaigns")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tLIST\tSENT\tPROGRESS\tCREATED")
	fmt.Fprintln(w, "--\t----\t------\t----\t----\t--------\t-------")
	for _, c := range campaigns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s%%\t%s\n",
			c.ID,
			truncate(c.Name, 40),
			c.Status,
			truncate(c.ListName, 24),
			c.SentCount, c.TotalRecipients,
			display.FormatPercent(display.CampaignProgress(c)),
			c.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d campaigns\n", len(campaigns))
}

func runCampaignShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	detail, err := s.client.GetCampaign(ctx, models.ID(args[0]))
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}
	printCampaignDetail(detail)
	return nil
}

func printCampaignDetail(d *models.CampaignDetail) {
	c := d.Campaign
	sent := display.SentCount(*d)

	fmt.Printf("Campaign: %s\n\n", c.ID)
	fmt.Printf("Name:        %s\n", c.Name)
	fmt.Printf("Status:      %s\n", c.Status)
	fmt.Printf("Template:    %s %s\n", c.TemplateID, c.TemplateName)
	fmt.Printf("List:        %s %s\n", c.ListID, c.ListName)
	fmt.Printf("Daily Limit: %d\n", display.DailyLimit(c))
	fmt.Printf("Recipients:  %d\n", c.TotalRecipients)
	fmt.Printf("Sent:        %d (%s%%)\n", sent, display.FormatPercent(display.ProgressPercent(sent, c.TotalRecipients)))
	if d.Stats != nil {
		fmt.Printf("Failed:      %d\n", d.Stats.Failed)
		fmt.Printf("Pending:     %d\n", d.Stats.Pending)
	}
	fmt.Printf("Created:     %s\n", c.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Started:     %s\n", formatTime(c.StartedAt))
	fmt.Printf("Completed:   %s\n", formatTime(c.CompletedAt))

	if actions := models.CampaignActions(c.Status); len(actions) > 0 {
		fmt.Printf("\nAvailable:   %v\n", actions)
	}
}

func runCampaignCreate(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()
	s.printNotifications()

	ctx, cancel := interruptContext()
	defer cancel()

	opts, err := compose.LoadOptions(ctx, s.client)
	if err != nil {
		return fmt.Errorf("failed to load templates and lists: %w", err)
	}

	form := compose.CampaignForm{
		Name:       campaignName,
		TemplateID: models.ID(campaignTemplate),
		ListID:     models.ID(campaignList),
		DailyLimit: campaignDailyLimit,
	}
	campaign, err := compose.SubmitCampaign(ctx, s.client, form, opts, s.feed)
	if err != nil {
		var fe *compose.FieldError
		if errors.As(err, &fe) && fe.Field == "list_id" {
			printSelectableLists(opts)
		}
		return err
	}

	fmt.Printf("Campaign created: %s (%s)\n", campaign.ID, campaign.Status)
	return nil
}

func printSelectableLists(opts *compose.Options) {
	if len(opts.Lists) == 0 {
		fmt.Fprintln(os.Stderr, "No processed lists available")
		return
	}
	fmt.Fprintln(os.Stderr, "Processed lists:")
	for _, l := range opts.Lists {
		fmt.Fprintf(os.Stderr, "  %s\t%s (%d valid)\n", l.ID, l.Name, l.ValidCount)
	}
}

// campaignTransition runs start, pause or resume after checking that the
// campaign's current status offers it.
func campaignTransition(kind models.Action) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(true)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := interruptContext()
		defer cancel()

		id := models.ID(args[0])
		detail, err := s.client.GetCampaign(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get campaign: %w", err)
		}
		if status := detail.Campaign.Status; !models.CampaignAllows(status, kind) {
			return fmt.Errorf("cannot %s campaign %s: status is %s", kind, id, status)
		}

		return s.dispatch(ctx, true, action.Request{
			Target: action.TargetCampaign,
			Kind:   kind,
			ID:     id,
		})
	}
}

func runCampaignDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	return s.dispatch(ctx, campaignYes, action.Request{
		Target: action.TargetCampaign,
		Kind:   models.ActionDelete,
		ID:     models.ID(args[0]),
	})
}

func runCampaignWatch(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		return watch(s, "campaigns", s.cfg.Polling.Campaigns, "campaigns", "Falha ao carregar campanhas",
			func(ctx context.Context, _ string) ([]models.Campaign, error) {
				return s.client.ListCampaigns(ctx)
			}, printCampaigns, nil)
	}

	return watch(s, "campaign_detail", s.cfg.Polling.CampaignDetail, args[0], "Falha ao carregar detalhes da campanha",
		func(ctx context.Context, id string) (*models.CampaignDetail, error) {
			return s.client.GetCampaign(ctx, models.ID(id))
		}, printCampaignDetail, campaignFinished)
}

// campaignFinished ends a campaign watch once no action can change it
func campaignFinished(d *models.CampaignDetail) bool {
	return d.Campaign.Status.Terminal()
}
