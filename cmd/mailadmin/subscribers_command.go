package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/subscribers"
)

const (
	flagNamePage           = "page"
	flagNamePerPage        = "per-page"
	flagNameAll            = "all"
	flagNameYes            = "yes"
	flagUsagePage          = "page to show"
	flagUsagePerPage       = "rows per page"
	flagUsageAll           = "fetch every row in a single page"
	flagUsageYes           = "delete without asking for confirmation"
	pageSummaryFormat      = "page %d of %d (%d subscribers)\n"
	emptyPageMessage       = "no subscribers on this page"
	cancelledMessage       = "delete cancelled"
	browseActionNext       = "Next page"
	browseActionPrevious   = "Previous page"
	browseActionJump       = "Go to page"
	browseActionDelete     = "Delete a subscriber"
	browseActionQuit       = "Quit"
	browsePromptMessage    = "What next?"
	browseDeleteMessage    = "Which subscriber?"
	browseJumpMessage      = "Page number"
	invalidPageMessage     = "invalid page number"
	subscriberOptionFormat = "%s <%s>"
)

func (application *CLIApplication) subscribersCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "subscribers",
		Short: "List, browse and delete the subscribers of a mailing list",
	}
	command.AddCommand(
		application.subscribersListCommand(),
		application.subscribersDeleteCommand(),
		application.subscribersBrowseCommand(),
	)
	return command
}

func (application *CLIApplication) subscribersListCommand() *cobra.Command {
	var page int
	var perPage int
	var all bool

	command := &cobra.Command{
		Use:   "list LIST_ID",
		Short: "Print one page of subscribers",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientErr := application.listClient()
			if clientErr != nil {
				return clientErr
			}
			subscriberPage, fetchErr := client.GetSubscribers(command.Context(), arguments[0], model.PageRequest{
				Paginate: !all,
				PerPage:  perPage,
				Page:     page,
			})
			if fetchErr != nil {
				return fetchErr
			}
			return printSubscriberPage(application.output, subscriberPage)
		},
	}
	command.Flags().IntVar(&page, flagNamePage, 1, flagUsagePage)
	command.Flags().IntVar(&perPage, flagNamePerPage, subscribers.DefaultPerPage, flagUsagePerPage)
	command.Flags().BoolVar(&all, flagNameAll, false, flagUsageAll)
	return command
}

func (application *CLIApplication) subscribersDeleteCommand() *cobra.Command {
	var assumeYes bool
	var page int

	command := &cobra.Command{
		Use:   "delete LIST_ID SUBSCRIBER_ID",
		Short: "Delete a subscriber after confirmation and reprint the list",
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientErr := application.listClient()
			if clientErr != nil {
				return clientErr
			}

			var table *subscribers.Table
			reloader := subscribers.ReloaderFunc(func(ctx context.Context) error {
				if mountErr := table.MountAt(ctx, page); mountErr != nil {
					return mountErr
				}
				return printSubscriberPage(application.output, table.Page())
			})
			var tableErr error
			table, tableErr = subscribers.New(client, promptConfirmer{prompter: application.prompter, assumeYes: assumeYes}, consoleNotifier{output: application.output}, reloader, subscribers.Config{
				ListID:     arguments[0],
				ReloadMode: subscribers.ReloadDocument,
				Logger:     application.logger,
			})
			if tableErr != nil {
				return tableErr
			}

			outcome, deleteErr := table.Delete(command.Context(), arguments[1])
			if outcome == subscribers.OutcomeCancelled && deleteErr == nil {
				_, writeErr := fmt.Fprintln(application.output, cancelledMessage)
				return writeErr
			}
			return deleteErr
		},
	}
	command.Flags().BoolVarP(&assumeYes, flagNameYes, "y", false, flagUsageYes)
	command.Flags().IntVar(&page, flagNamePage, 1, "page to reprint after the delete")
	return command
}

func (application *CLIApplication) subscribersBrowseCommand() *cobra.Command {
	var page int

	command := &cobra.Command{
		Use:   "browse LIST_ID",
		Short: "Page through subscribers interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientErr := application.listClient()
			if clientErr != nil {
				return clientErr
			}
			table, tableErr := subscribers.New(client, promptConfirmer{prompter: application.prompter}, consoleNotifier{output: application.output}, nil, subscribers.Config{
				ListID:     arguments[0],
				ReloadMode: subscribers.ReloadIncremental,
				Logger:     application.logger,
			})
			if tableErr != nil {
				return tableErr
			}
			if mountErr := table.MountAt(command.Context(), page); mountErr != nil {
				return mountErr
			}
			return application.browse(command.Context(), table)
		},
	}
	command.Flags().IntVar(&page, flagNamePage, 1, flagUsagePage)
	return command
}

// browse runs the interactive loop until the operator quits.
func (application *CLIApplication) browse(ctx context.Context, table *subscribers.Table) error {
	for {
		if printErr := printSubscriberPage(application.output, table.Page()); printErr != nil {
			return printErr
		}

		state := table.Pagination().Snapshot()
		actions := browseActions(state.HasNext, state.HasPrevious, len(table.Rows()) > 0)
		choice, selectErr := application.prompter.Select(ctx, SelectConfig{Message: browsePromptMessage, Options: actions})
		if errors.Is(selectErr, ErrAborted) {
			return nil
		}
		if selectErr != nil {
			return selectErr
		}
		if choice < 0 || choice >= len(actions) {
			return nil
		}

		var actionErr error
		switch actions[choice] {
		case browseActionNext:
			table.Pagination().Next()
			actionErr = table.Settle()
		case browseActionPrevious:
			table.Pagination().Previous()
			actionErr = table.Settle()
		case browseActionJump:
			actionErr = application.jumpToPage(ctx, table)
		case browseActionDelete:
			actionErr = application.deleteFromPage(ctx, table)
		default:
			return nil
		}
		if actionErr != nil && !errors.Is(actionErr, ErrAborted) {
			fmt.Fprintf(application.output, "error: %v\n", actionErr)
		}
	}
}

func (application *CLIApplication) jumpToPage(ctx context.Context, table *subscribers.Table) error {
	answer, inputErr := application.prompter.Input(ctx, InputConfig{Message: browseJumpMessage, Default: strconv.Itoa(table.Pagination().Page())})
	if inputErr != nil {
		return inputErr
	}
	pageNumber, parseErr := strconv.Atoi(answer)
	if parseErr != nil || pageNumber < 1 {
		return fmt.Errorf("%s: %q", invalidPageMessage, answer)
	}
	table.Pagination().Select(pageNumber)
	return table.Settle()
}

func (application *CLIApplication) deleteFromPage(ctx context.Context, table *subscribers.Table) error {
	rows := table.Rows()
	options := make([]string, 0, len(rows))
	for _, row := range rows {
		options = append(options, fmt.Sprintf(subscriberOptionFormat, row.Name, row.Email))
	}
	choice, selectErr := application.prompter.Select(ctx, SelectConfig{Message: browseDeleteMessage, Options: options})
	if selectErr != nil {
		return selectErr
	}
	if choice < 0 || choice >= len(rows) {
		return nil
	}
	_, deleteErr := table.Delete(ctx, rows[choice].ID)
	return deleteErr
}

func browseActions(hasNext bool, hasPrevious bool, hasRows bool) []string {
	var actions []string
	if hasNext {
		actions = append(actions, browseActionNext)
	}
	if hasPrevious {
		actions = append(actions, browseActionPrevious)
	}
	actions = append(actions, browseActionJump)
	if hasRows {
		actions = append(actions, browseActionDelete)
	}
	return append(actions, browseActionQuit)
}

func printSubscriberPage(output io.Writer, subscriberPage model.SubscriberPage) error {
	if len(subscriberPage.Data) == 0 {
		if _, writeErr := fmt.Fprintln(output, emptyPageMessage); writeErr != nil {
			return writeErr
		}
	} else {
		writer := tabwriter.NewWriter(output, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ID\tNAME\tEMAIL")
		for _, subscriber := range subscriberPage.Data {
			fmt.Fprintf(writer, "%s\t%s\t%s\n", subscriber.ID, subscriber.Name, subscriber.Email)
		}
		if flushErr := writer.Flush(); flushErr != nil {
			return flushErr
		}
	}
	_, writeErr := fmt.Fprintf(output, pageSummaryFormat, subscriberPage.CurrentPage, subscriberPage.LastPage, subscriberPage.Total)
	return writeErr
}

// consoleNotifier prints delete outcomes in place of dialog boxes.
type consoleNotifier struct {
	output io.Writer
}

func (notifier consoleNotifier) Success(title string, text string) {
	fmt.Fprintf(notifier.output, "%s: %s\n", title, text)
}

func (notifier consoleNotifier) Error(title string, text string) {
	fmt.Fprintf(notifier.output, "%s: %s\n", title, text)
}
