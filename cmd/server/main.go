package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/httpapi"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/storage"
)

const (
	commandUseName                   = "server"
	commandShortDescription          = "Run the mailing list admin server"
	commandLongDescription           = "Launch the mailing list admin web UI and, optionally, the development API"
	missingConfigurationMessage      = "missing required configuration"
	invalidConfigurationMessage      = "invalid configuration"
	loggerCreationErrorMessage       = "logger"
	logEventListening                = "listening"
	logEventSeeded                   = "seeded_demo"
	logFieldAddress                  = "addr"
	logFieldServeMode                = "serve_mode"
	logFieldListID                   = "list_id"
	flagNameApplicationAddress       = "app-addr"
	flagNameAPIBaseURL               = "api-base-url"
	flagNameSessionSecret            = "session-secret"
	flagNameDatabaseDriver           = "db-driver"
	flagNameDatabaseDataSourceName   = "db-dsn"
	flagNameServeMode                = "serve-mode"
	flagNameSeedDemo                 = "seed-demo"
	flagUsageApplicationAddress      = "address for the HTTP server to listen on"
	flagUsageAPIBaseURL              = "base URL of the mailing list API (defaults to this server in monolith mode)"
	flagUsageSessionSecret           = "secret used to sign flash cookies (at least 32 bytes)"
	flagUsageDatabaseDriver          = "database driver for the development API"
	flagUsageDatabaseDataSourceName  = "database connection string for the development API"
	flagUsageServeMode               = "which surfaces to serve: monolith, web or api"
	flagUsageSeedDemo                = "seed a demo list and templates on startup"
	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyAPIBaseURL         = "API_BASE_URL"
	environmentKeySessionSecret      = "SESSION_SECRET"
	environmentKeyDatabaseDriver     = "DB_DRIVER"
	environmentKeyDatabaseDataSource = "DB_DSN"
	environmentKeyServeMode          = "SERVE_MODE"
	environmentKeySeedDemo           = "SEED_DEMO"
	defaultApplicationAddress        = ":8080"
	defaultDatabaseDriver            = storage.DriverNameSQLite
	defaultServeMode                 = string(ServeModeMonolith)
	loopbackHost                     = "127.0.0.1"
	loggerContextOpenDatabase        = "open_db"
	loggerContextAutoMigrate         = "migrate"
	loggerContextSeed                = "seed"
	loggerContextServer              = "server"
	readHeaderTimeoutSeconds         = 5
	unexpectedArgumentsMessage       = "unexpected command arguments"
	commandInitializationFailure     = "failed to configure command"
	flagNotDefinedMessage            = "flag %s not defined"
	environmentConfigurationError    = "failed to apply environment configuration"
)

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress     string `validate:"required,hostname_port"`
	APIBaseURL             string `validate:"omitempty,url"`
	SessionSecret          string `validate:"omitempty,min=32"`
	DatabaseDriver         string `validate:"omitempty,oneof=sqlite"`
	DatabaseDataSourceName string
	ServeMode              ServeMode `validate:"oneof=monolith web api"`
	SeedDemo               bool
}

// DatabaseOpener opens a database connection using the provided configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
	configValidator     *validator.Validate
}

type flagBinding struct {
	environmentKey string
	flagName       string
}

var flagBindings = []flagBinding{
	{environmentKey: environmentKeyApplicationAddress, flagName: flagNameApplicationAddress},
	{environmentKey: environmentKeyAPIBaseURL, flagName: flagNameAPIBaseURL},
	{environmentKey: environmentKeySessionSecret, flagName: flagNameSessionSecret},
	{environmentKey: environmentKeyDatabaseDriver, flagName: flagNameDatabaseDriver},
	{environmentKey: environmentKeyDatabaseDataSource, flagName: flagNameDatabaseDataSourceName},
	{environmentKey: environmentKeyServeMode, flagName: flagNameServeMode},
	{environmentKey: environmentKeySeedDemo, flagName: flagNameSeedDemo},
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
		configValidator:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyAPIBaseURL, "")
	application.configurationLoader.SetDefault(environmentKeySessionSecret, "")
	application.configurationLoader.SetDefault(environmentKeyDatabaseDriver, defaultDatabaseDriver)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDataSource, "")
	application.configurationLoader.SetDefault(environmentKeyServeMode, defaultServeMode)
	application.configurationLoader.SetDefault(environmentKeySeedDemo, false)
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameAPIBaseURL, "", flagUsageAPIBaseURL)
	commandFlags.String(flagNameSessionSecret, "", flagUsageSessionSecret)
	commandFlags.String(flagNameDatabaseDriver, defaultDatabaseDriver, flagUsageDatabaseDriver)
	commandFlags.String(flagNameDatabaseDataSourceName, "", flagUsageDatabaseDataSourceName)
	commandFlags.String(flagNameServeMode, defaultServeMode, flagUsageServeMode)
	commandFlags.Bool(flagNameSeedDemo, false, flagUsageSeedDemo)

	for _, binding := range flagBindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
	}

	for _, binding := range flagBindings {
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) loadConfiguration() (ServerConfig, error) {
	serveMode, serveModeErr := ParseServeMode(application.configurationLoader.GetString(environmentKeyServeMode))
	if serveModeErr != nil {
		return ServerConfig{}, serveModeErr
	}

	serverConfig := ServerConfig{
		ApplicationAddress:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyApplicationAddress)),
		APIBaseURL:             strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAPIBaseURL)),
		SessionSecret:          strings.TrimSpace(application.configurationLoader.GetString(environmentKeySessionSecret)),
		DatabaseDriver:         strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDriver)),
		DatabaseDataSourceName: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDataSource)),
		ServeMode:              serveMode,
		SeedDemo:               application.configurationLoader.GetBool(environmentKeySeedDemo),
	}
	if serverConfig.ServeMode == ServeModeMonolith && serverConfig.APIBaseURL == "" {
		serverConfig.APIBaseURL = loopbackBaseURL(serverConfig.ApplicationAddress)
	}

	if requiredErr := application.ensureRequiredConfiguration(serverConfig); requiredErr != nil {
		return ServerConfig{}, requiredErr
	}
	if validationErr := application.configValidator.Struct(serverConfig); validationErr != nil {
		return ServerConfig{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, validationErr)
	}
	return serverConfig, nil
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig, configurationErr := application.loadConfiguration()
	if configurationErr != nil {
		return configurationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	router, routerErr := application.buildRouter(serverConfig, logger)
	if routerErr != nil {
		logger.Error(loggerContextServer, zap.Error(routerErr))
		return routerErr
	}

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening,
		zap.String(logFieldAddress, serverConfig.ApplicationAddress),
		zap.String(logFieldServeMode, string(serverConfig.ServeMode)),
	)
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

// buildRouter wires the surfaces selected by the serve mode.
func (application *ServerApplication) buildRouter(serverConfig ServerConfig, logger *zap.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestID())
	router.Use(httpapi.RequestLogger(logger))

	landingPath := templatesLandingPath

	if serverConfig.ServeMode.IncludesAPI() {
		database, databaseErr := application.databaseOpener(storage.Config{
			DriverName:     serverConfig.DatabaseDriver,
			DataSourceName: serverConfig.DatabaseDataSourceName,
		})
		if databaseErr != nil {
			return nil, fmt.Errorf("%s: %w", loggerContextOpenDatabase, databaseErr)
		}
		if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
			return nil, fmt.Errorf("%s: %w", loggerContextAutoMigrate, migrateErr)
		}
		if serverConfig.SeedDemo {
			listID, seedErr := storage.SeedDemo(database)
			if seedErr != nil {
				return nil, fmt.Errorf("%s: %w", loggerContextSeed, seedErr)
			}
			logger.Info(logEventSeeded, zap.String(logFieldListID, listID))
			landingPath = subscribersLandingPath(listID)
		}
		registerBackendRoutes(router, database, logger)
	}

	if serverConfig.ServeMode.IncludesWeb() {
		if frontendErr := registerFrontendRoutes(router, serverConfig, logger, landingPath); frontendErr != nil {
			return nil, frontendErr
		}
	}

	return router, nil
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.ServeMode.IncludesWeb() {
		if configuration.APIBaseURL == "" {
			missingParameters = append(missingParameters, flagNameAPIBaseURL)
		}
		if configuration.SessionSecret == "" {
			missingParameters = append(missingParameters, flagNameSessionSecret)
		}
	}

	if configuration.ServeMode.IncludesAPI() && configuration.DatabaseDataSourceName == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDataSourceName)
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

// loopbackBaseURL points a monolith's web UI at its own API.
func loopbackBaseURL(applicationAddress string) string {
	host, port, splitErr := net.SplitHostPort(applicationAddress)
	if splitErr != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = loopbackHost
	}
	return "http://" + net.JoinHostPort(host, port)
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
