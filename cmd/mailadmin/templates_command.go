package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
)

const (
	flagNameName              = "name"
	flagNameContent           = "content"
	flagNameContentFile       = "content-file"
	flagUsageName             = "template name"
	flagUsageContent          = "template content"
	flagUsageContentFile      = "read template content from a file (- for stdin)"
	templatePageSummaryFormat = "page %d of %d (%d templates)\n"
	emptyTemplatesMessage     = "no templates on this page"
	templateDeletedFormat     = "template %s deleted\n"
	templateCreatedFormat     = "template %s created\n"
	confirmTemplateDelete     = "Are you sure? You will not be able to recover this template!"
	stdinFileName             = "-"
)

var errTemplateInputRequired = errors.New("mailadmin: template name and content are required")

func (application *CLIApplication) templatesCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "templates",
		Short: "List, show, create and delete templates",
	}
	command.AddCommand(
		application.templatesListCommand(),
		application.templatesGetCommand(),
		application.templatesCreateCommand(),
		application.templatesDeleteCommand(),
	)
	return command
}

func (application *CLIApplication) templatesListCommand() *cobra.Command {
	var page int
	var perPage int
	var all bool

	command := &cobra.Command{
		Use:   "list",
		Short: "Print one page of templates",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientErr := application.templateClient()
			if clientErr != nil {
				return clientErr
			}
			templatePage, listErr := client.All(command.Context(), model.PageRequest{Paginate: !all, PerPage: perPage, Page: page})
			if listErr != nil {
				return listErr
			}
			return printTemplatePage(application.output, templatePage)
		},
	}
	command.Flags().IntVar(&page, flagNamePage, 1, flagUsagePage)
	command.Flags().IntVar(&perPage, flagNamePerPage, model.DefaultPerPage, flagUsagePerPage)
	command.Flags().BoolVar(&all, flagNameAll, false, flagUsageAll)
	return command
}

func (application *CLIApplication) templatesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get TEMPLATE_ID",
		Short: "Print a template's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientErr := application.templateClient()
			if clientErr != nil {
				return clientErr
			}
			storedTemplate, getErr := client.Get(command.Context(), arguments[0])
			if getErr != nil {
				return getErr
			}
			_, writeErr := fmt.Fprintf(application.output, "# %s\n%s\n", storedTemplate.Name, storedTemplate.Content)
			return writeErr
		},
	}
}

func (application *CLIApplication) templatesCreateCommand() *cobra.Command {
	var name string
	var content string
	var contentFile string

	command := &cobra.Command{
		Use:   "create",
		Short: "Create a template",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if contentFile != "" {
				fileContent, readErr := readContentFile(command.InOrStdin(), contentFile)
				if readErr != nil {
					return readErr
				}
				content = fileContent
			}
			if strings.TrimSpace(name) == "" || content == "" {
				return errTemplateInputRequired
			}

			client, clientErr := application.templateClient()
			if clientErr != nil {
				return clientErr
			}
			createdTemplate, createErr := client.Create(command.Context(), model.TemplateInput{Name: strings.TrimSpace(name), Content: content})
			if createErr != nil {
				return createErr
			}
			_, writeErr := fmt.Fprintf(application.output, templateCreatedFormat, createdTemplate.ID)
			return writeErr
		},
	}
	command.Flags().StringVar(&name, flagNameName, "", flagUsageName)
	command.Flags().StringVar(&content, flagNameContent, "", flagUsageContent)
	command.Flags().StringVar(&contentFile, flagNameContentFile, "", flagUsageContentFile)
	return command
}

func (application *CLIApplication) templatesDeleteCommand() *cobra.Command {
	var assumeYes bool

	command := &cobra.Command{
		Use:   "delete TEMPLATE_ID",
		Short: "Delete a template after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			if !assumeYes {
				confirmed, confirmErr := application.prompter.Confirm(command.Context(), ConfirmConfig{Message: confirmTemplateDelete})
				if errors.Is(confirmErr, ErrAborted) || (confirmErr == nil && !confirmed) {
					_, writeErr := fmt.Fprintln(application.output, cancelledMessage)
					return writeErr
				}
				if confirmErr != nil {
					return confirmErr
				}
			}

			client, clientErr := application.templateClient()
			if clientErr != nil {
				return clientErr
			}
			if deleteErr := client.Delete(command.Context(), arguments[0]); deleteErr != nil {
				return deleteErr
			}
			_, writeErr := fmt.Fprintf(application.output, templateDeletedFormat, arguments[0])
			return writeErr
		},
	}
	command.Flags().BoolVarP(&assumeYes, flagNameYes, "y", false, flagUsageYes)
	return command
}

func readContentFile(stdin io.Reader, path string) (string, error) {
	if path == stdinFileName {
		content, readErr := io.ReadAll(stdin)
		return string(content), readErr
	}
	content, readErr := os.ReadFile(path)
	return string(content), readErr
}

func printTemplatePage(output io.Writer, templatePage model.TemplatePage) error {
	if len(templatePage.Data) == 0 {
		if _, writeErr := fmt.Fprintln(output, emptyTemplatesMessage); writeErr != nil {
			return writeErr
		}
	} else {
		writer := tabwriter.NewWriter(output, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ID\tNAME")
		for _, storedTemplate := range templatePage.Data {
			fmt.Fprintf(writer, "%s\t%s\n", storedTemplate.ID, storedTemplate.Name)
		}
		if flushErr := writer.Flush(); flushErr != nil {
			return flushErr
		}
	}
	_, writeErr := fmt.Fprintf(output, templatePageSummaryFormat, templatePage.CurrentPage, templatePage.LastPage, templatePage.Total)
	return writeErr
}
