package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/apiclient"
)

const (
	commandUseName                  = "mailadmin"
	commandShortDescription         = "Administer mailing list subscribers and templates"
	commandLongDescription          = "Browse and delete subscribers and manage templates through the mailing list REST API"
	missingConfigurationMessage     = "missing required configuration"
	commandInitializationFailure    = "failed to configure command"
	flagNotDefinedMessage           = "flag %s not defined"
	environmentConfigurationError   = "failed to apply environment configuration"
	flagNameAPIBaseURL              = "api-base-url"
	flagNameRequestTimeout          = "timeout"
	flagNameVerbose                 = "verbose"
	flagUsageAPIBaseURL             = "base URL of the mailing list API"
	flagUsageRequestTimeout         = "per-request timeout"
	flagUsageVerbose                = "log API requests to stderr"
	environmentKeyAPIBaseURL        = "API_BASE_URL"
	environmentKeyRequestTimeout    = "MAILADMIN_TIMEOUT"
	defaultRequestTimeout           = 10 * time.Second
	loggerCreationErrorMessage      = "logger"
	clientConfigurationErrorMessage = "configure api client"
)

// CLIApplication constructs and executes the mailadmin command tree.
type CLIApplication struct {
	configurationLoader *viper.Viper
	prompter            Prompter
	output              io.Writer
	logger              *zap.Logger
}

// NewCLIApplication creates a CLIApplication prompting on the terminal.
func NewCLIApplication() *CLIApplication {
	return &CLIApplication{
		configurationLoader: viper.New(),
		prompter:            newSurveyPrompter(),
		output:              os.Stdout,
	}
}

// WithPrompter overrides the prompt implementation.
func (application *CLIApplication) WithPrompter(prompter Prompter) *CLIApplication {
	application.prompter = prompter
	return application
}

// WithOutput overrides where command results are printed.
func (application *CLIApplication) WithOutput(output io.Writer) *CLIApplication {
	application.output = output
	return application
}

// Command builds the Cobra command tree.
func (application *CLIApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.prepare()
		},
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	rootCommand.AddCommand(application.subscribersCommand(), application.templatesCommand())
	return rootCommand, nil
}

func (application *CLIApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyAPIBaseURL, "")
	application.configurationLoader.SetDefault(environmentKeyRequestTimeout, defaultRequestTimeout)
	application.configurationLoader.AutomaticEnv()

	persistentFlags := command.PersistentFlags()
	persistentFlags.String(flagNameAPIBaseURL, "", flagUsageAPIBaseURL)
	persistentFlags.Duration(flagNameRequestTimeout, defaultRequestTimeout, flagUsageRequestTimeout)
	persistentFlags.Bool(flagNameVerbose, false, flagUsageVerbose)

	if bindErr := application.bindFlag(persistentFlags, environmentKeyAPIBaseURL, flagNameAPIBaseURL); bindErr != nil {
		return bindErr
	}
	if bindErr := application.bindFlag(persistentFlags, environmentKeyRequestTimeout, flagNameRequestTimeout); bindErr != nil {
		return bindErr
	}
	if bindErr := application.bindFlag(persistentFlags, flagNameVerbose, flagNameVerbose); bindErr != nil {
		return bindErr
	}

	if environmentErr := application.applyEnvironmentConfiguration(persistentFlags, environmentKeyAPIBaseURL, flagNameAPIBaseURL); environmentErr != nil {
		return environmentErr
	}
	return application.applyEnvironmentConfiguration(persistentFlags, environmentKeyRequestTimeout, flagNameRequestTimeout)
}

func (application *CLIApplication) bindFlag(flagSet *pflag.FlagSet, configurationKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}
	return application.configurationLoader.BindPFlag(configurationKey, flag)
}

func (application *CLIApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}
	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}
	return nil
}

func (application *CLIApplication) prepare() error {
	if strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAPIBaseURL)) == "" {
		return fmt.Errorf("%s: %s", missingConfigurationMessage, flagNameAPIBaseURL)
	}
	if application.logger != nil {
		return nil
	}
	if !application.configurationLoader.GetBool(flagNameVerbose) {
		application.logger = zap.NewNop()
		return nil
	}
	logger, loggerErr := zap.NewDevelopment()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	application.logger = logger
	return nil
}

func (application *CLIApplication) clientConfig() apiclient.Config {
	return apiclient.Config{
		BaseURL:    strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAPIBaseURL)),
		HTTPClient: &http.Client{Timeout: application.configurationLoader.GetDuration(environmentKeyRequestTimeout)},
		Logger:     application.logger,
	}
}

func (application *CLIApplication) listClient() (*apiclient.ListClient, error) {
	client, clientErr := apiclient.NewListClient(application.clientConfig())
	if clientErr != nil {
		return nil, fmt.Errorf("%s: %w", clientConfigurationErrorMessage, clientErr)
	}
	return client, nil
}

func (application *CLIApplication) templateClient() (*apiclient.TemplateClient, error) {
	client, clientErr := apiclient.NewTemplateClient(application.clientConfig())
	if clientErr != nil {
		return nil, fmt.Errorf("%s: %w", clientConfigurationErrorMessage, clientErr)
	}
	return client, nil
}

func main() {
	application := NewCLIApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
