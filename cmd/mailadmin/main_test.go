package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/devapi"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/testutil"
)

const (
	testSubscriberCount  = 23
	testEmailPattern     = "reader%02d@example.com"
	testNamePattern      = "Reader %02d"
	successMessageToken  = "Success: The subscriber was successfully removed!"
	failureMessageToken  = "Could not delete: Could not delete the subscriber. Try again."
	firstPageSummary     = "page 1 of 3 (23 subscribers)"
	secondPageSummary    = "page 2 of 3 (23 subscribers)"
	flagIndicatorBaseURL = "--api-base-url"
)

type scriptedPrompter struct {
	mutex          sync.Mutex
	confirmAnswers []bool
	selectAnswers  []int
	inputAnswers   []string
	confirmations  []ConfirmConfig
	selections     []SelectConfig
}

func (prompter *scriptedPrompter) Confirm(_ context.Context, config ConfirmConfig) (bool, error) {
	prompter.mutex.Lock()
	defer prompter.mutex.Unlock()
	prompter.confirmations = append(prompter.confirmations, config)
	if len(prompter.confirmAnswers) == 0 {
		return false, ErrAborted
	}
	answer := prompter.confirmAnswers[0]
	prompter.confirmAnswers = prompter.confirmAnswers[1:]
	return answer, nil
}

func (prompter *scriptedPrompter) Select(_ context.Context, config SelectConfig) (int, error) {
	prompter.mutex.Lock()
	defer prompter.mutex.Unlock()
	prompter.selections = append(prompter.selections, config)
	if len(prompter.selectAnswers) == 0 {
		return 0, ErrAborted
	}
	answer := prompter.selectAnswers[0]
	prompter.selectAnswers = prompter.selectAnswers[1:]
	return answer, nil
}

func (prompter *scriptedPrompter) Input(_ context.Context, _ InputConfig) (string, error) {
	prompter.mutex.Lock()
	defer prompter.mutex.Unlock()
	if len(prompter.inputAnswers) == 0 {
		return "", ErrAborted
	}
	answer := prompter.inputAnswers[0]
	prompter.inputAnswers = prompter.inputAnswers[1:]
	return answer, nil
}

type cliHarness struct {
	database *gorm.DB
	server   *httptest.Server
	listID   string
}

func newCLIHarness(testingT *testing.T, subscriberCount int) *cliHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.OpenMigratedDatabase(testingT)
	list, listErr := model.NewMailingList("CLI")
	require.NoError(testingT, listErr)
	require.NoError(testingT, database.Create(&list).Error)
	for index := 1; index <= subscriberCount; index++ {
		subscriber, subscriberErr := model.NewSubscriber(model.SubscriberInput{
			ListID: list.ID,
			Email:  fmt.Sprintf(testEmailPattern, index),
			Name:   fmt.Sprintf(testNamePattern, index),
		})
		require.NoError(testingT, subscriberErr)
		require.NoError(testingT, database.Create(&subscriber).Error)
	}

	router := gin.New()
	devapi.RegisterRoutes(router.Group("/api"), devapi.NewHandlers(database, zap.NewNop()))
	server := httptest.NewServer(router)
	testingT.Cleanup(server.Close)

	return &cliHarness{database: database, server: server, listID: list.ID}
}

func (harness *cliHarness) run(testingT *testing.T, prompter Prompter, arguments ...string) (string, error) {
	testingT.Helper()
	output := &bytes.Buffer{}
	application := NewCLIApplication().WithPrompter(prompter).WithOutput(output)
	command, commandErr := application.Command()
	require.NoError(testingT, commandErr)
	command.SetOut(output)
	command.SetErr(output)
	command.SetArgs(append([]string{flagIndicatorBaseURL, harness.server.URL}, arguments...))
	executeErr := command.Execute()
	return output.String(), executeErr
}

func (harness *cliHarness) subscriberCount(testingT *testing.T) int64 {
	testingT.Helper()
	var count int64
	require.NoError(testingT, harness.database.Model(&model.Subscriber{}).Count(&count).Error)
	return count
}

func (harness *cliHarness) firstSubscriberID(testingT *testing.T) string {
	testingT.Helper()
	var subscriber model.Subscriber
	require.NoError(testingT, harness.database.Where("email = ?", fmt.Sprintf(testEmailPattern, 1)).First(&subscriber).Error)
	return subscriber.ID
}

func TestSubscribersListPrintsRequestedPage(testingT *testing.T) {
	harness := newCLIHarness(testingT, testSubscriberCount)

	output, runErr := harness.run(testingT, &scriptedPrompter{}, "subscribers", "list", harness.listID, "--page", "3")
	require.NoError(testingT, runErr)
	require.Contains(testingT, output, "page 3 of 3 (23 subscribers)")
	require.Contains(testingT, output, fmt.Sprintf(testEmailPattern, 21))
	require.Equal(testingT, 3, strings.Count(output, "@example.com"))
}

func TestSubscribersListAllIgnoresPaging(testingT *testing.T) {
	harness := newCLIHarness(testingT, testSubscriberCount)

	output, runErr := harness.run(testingT, &scriptedPrompter{}, "subscribers", "list", harness.listID, "--all")
	require.NoError(testingT, runErr)
	require.Equal(testingT, testSubscriberCount, strings.Count(output, "@example.com"))
}

func TestSubscribersDeleteConfirmedReloadsList(testingT *testing.T) {
	harness := newCLIHarness(testingT, testSubscriberCount)
	prompter := &scriptedPrompter{confirmAnswers: []bool{true}}

	output, runErr := harness.run(testingT, prompter, "subscribers", "delete", harness.listID, harness.firstSubscriberID(testingT))
	require.NoError(testingT, runErr)
	require.Contains(testingT, output, successMessageToken)
	require.Contains(testingT, output, "page 1 of 3 (22 subscribers)")
	require.NotContains(testingT, output, fmt.Sprintf(testEmailPattern, 1))
	require.EqualValues(testingT, testSubscriberCount-1, harness.subscriberCount(testingT))

	require.Len(testingT, prompter.confirmations, 1)
	require.Contains(testingT, prompter.confirmations[0].Message, "Are you sure?")
	require.Contains(testingT, prompter.confirmations[0].Message, "You will not be able to recover this subscriber!")
}

func TestSubscribersDeleteDeclinedLeavesListUntouched(testingT *testing.T) {
	harness := newCLIHarness(testingT, 3)

	output, runErr := harness.run(testingT, &scriptedPrompter{confirmAnswers: []bool{false}}, "subscribers", "delete", harness.listID, harness.firstSubscriberID(testingT))
	require.NoError(testingT, runErr)
	require.Contains(testingT, output, cancelledMessage)
	require.NotContains(testingT, output, successMessageToken)
	require.EqualValues(testingT, 3, harness.subscriberCount(testingT))
}

func TestSubscribersDeleteUnknownReportsFailure(testingT *testing.T) {
	harness := newCLIHarness(testingT, 3)
	prompter := &scriptedPrompter{}

	output, runErr := harness.run(testingT, prompter, "subscribers", "delete", harness.listID, "missing", "--yes")
	require.Error(testingT, runErr)
	require.Contains(testingT, output, failureMessageToken)
	require.Empty(testingT, prompter.confirmations)
	require.EqualValues(testingT, 3, harness.subscriberCount(testingT))
}

func TestSubscribersBrowseNavigatesPages(testingT *testing.T) {
	harness := newCLIHarness(testingT, testSubscriberCount)
	prompter := &scriptedPrompter{selectAnswers: []int{0, 4}}

	output, runErr := harness.run(testingT, prompter, "subscribers", "browse", harness.listID)
	require.NoError(testingT, runErr)
	require.Contains(testingT, output, firstPageSummary)
	require.Contains(testingT, output, secondPageSummary)

	require.Len(testingT, prompter.selections, 2)
	require.Equal(testingT, []string{browseActionNext, browseActionJump, browseActionDelete, browseActionQuit}, prompter.selections[0].Options)
	require.Equal(testingT, []string{browseActionNext, browseActionPrevious, browseActionJump, browseActionDelete, browseActionQuit}, prompter.selections[1].Options)
}

func TestSubscribersBrowseMovesPaginationIndicator(testingT *testing.T) {
	harness := newCLIHarness(testingT, testSubscriberCount)
	prompter := &scriptedPrompter{
		inputAnswers:  []string{"9"},
		selectAnswers: []int{0, 0, 0, 2, 3},
	}

	output, runErr := harness.run(testingT, prompter, "subscribers", "browse", harness.listID)
	require.NoError(testingT, runErr)
	require.NotContains(testingT, output, "page 9")

	var summaries []string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "page ") {
			summaries = append(summaries, line)
		}
	}
	require.Equal(testingT, []string{
		firstPageSummary,
		secondPageSummary,
		"page 3 of 3 (23 subscribers)",
		secondPageSummary,
		"page 3 of 3 (23 subscribers)",
	}, summaries)

	require.Len(testingT, prompter.selections, 5)
	require.Equal(testingT, []string{browseActionPrevious, browseActionJump, browseActionDelete, browseActionQuit}, prompter.selections[4].Options)
}

func TestSubscribersBrowseJumpsAndDeletes(testingT *testing.T) {
	harness := newCLIHarness(testingT, 11)
	prompter := &scriptedPrompter{
		inputAnswers:   []string{"2"},
		selectAnswers:  []int{1, 2, 0, 2},
		confirmAnswers: []bool{true},
	}

	output, runErr := harness.run(testingT, prompter, "subscribers", "browse", harness.listID)
	require.NoError(testingT, runErr)
	require.Contains(testingT, output, "page 2 of 2 (11 subscribers)")
	require.Contains(testingT, output, successMessageToken)
	require.Contains(testingT, output, "page 1 of 1 (10 subscribers)")
	require.EqualValues(testingT, 10, harness.subscriberCount(testingT))
}

func TestTemplatesLifecycle(testingT *testing.T) {
	harness := newCLIHarness(testingT, 0)

	createOutput, createErr := harness.run(testingT, &scriptedPrompter{}, "templates", "create", "--name", "Welcome", "--content", "Hi")
	require.NoError(testingT, createErr)
	require.Contains(testingT, createOutput, "created")

	var stored model.Template
	require.NoError(testingT, harness.database.First(&stored).Error)
	require.Equal(testingT, "Welcome", stored.Name)

	listOutput, listErr := harness.run(testingT, &scriptedPrompter{}, "templates", "list")
	require.NoError(testingT, listErr)
	require.Contains(testingT, listOutput, "page 1 of 1 (1 templates)")
	require.Contains(testingT, listOutput, stored.ID)

	getOutput, getErr := harness.run(testingT, &scriptedPrompter{}, "templates", "get", stored.ID)
	require.NoError(testingT, getErr)
	require.Equal(testingT, "# Welcome\nHi\n", getOutput)

	declinedOutput, declinedErr := harness.run(testingT, &scriptedPrompter{confirmAnswers: []bool{false}}, "templates", "delete", stored.ID)
	require.NoError(testingT, declinedErr)
	require.Contains(testingT, declinedOutput, cancelledMessage)

	deleteOutput, deleteErr := harness.run(testingT, &scriptedPrompter{confirmAnswers: []bool{true}}, "templates", "delete", stored.ID)
	require.NoError(testingT, deleteErr)
	require.Contains(testingT, deleteOutput, "deleted")

	_, missingErr := harness.run(testingT, &scriptedPrompter{}, "templates", "get", stored.ID)
	require.Error(testingT, missingErr)
}

func TestTemplatesCreateRequiresNameAndContent(testingT *testing.T) {
	harness := newCLIHarness(testingT, 0)

	_, createErr := harness.run(testingT, &scriptedPrompter{}, "templates", "create", "--name", "Welcome")
	require.ErrorIs(testingT, createErr, errTemplateInputRequired)
}

func TestCommandRequiresAPIBaseURL(testingT *testing.T) {
	testingT.Setenv(environmentKeyAPIBaseURL, "")
	output := &bytes.Buffer{}
	command, commandErr := NewCLIApplication().WithPrompter(&scriptedPrompter{}).WithOutput(output).Command()
	require.NoError(testingT, commandErr)
	command.SetOut(output)
	command.SetErr(output)
	command.SetArgs([]string{"templates", "list"})

	executeErr := command.Execute()
	require.Error(testingT, executeErr)
	require.Contains(testingT, executeErr.Error(), missingConfigurationMessage)
}
