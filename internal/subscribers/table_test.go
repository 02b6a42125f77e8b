package subscribers_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/subscribers"
)

const (
	testListID           = "list-1"
	eventuallyTimeout    = 2 * time.Second
	eventuallyPollPeriod = 10 * time.Millisecond
)

var errTestSourceFailure = errors.New("source failure")

type fakeSource struct {
	mutex       sync.Mutex
	subscribers []model.Subscriber
	requests    []model.PageRequest
	gates       map[int]chan struct{}
	deleted     []string
	fetchErr    error
	deleteErr   error
}

func newFakeSource(count int) *fakeSource {
	source := &fakeSource{gates: map[int]chan struct{}{}}
	for index := 0; index < count; index++ {
		source.subscribers = append(source.subscribers, model.Subscriber{
			ID:    fmt.Sprintf("sub-%02d", index+1),
			Name:  fmt.Sprintf("Subscriber %d", index+1),
			Email: fmt.Sprintf("subscriber%d@example.com", index+1),
		})
	}
	return source
}

func (source *fakeSource) gate(page int) chan struct{} {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	gate := make(chan struct{})
	source.gates[page] = gate
	return gate
}

func (source *fakeSource) GetSubscribers(ctx context.Context, listID string, pageRequest model.PageRequest) (model.SubscriberPage, error) {
	source.mutex.Lock()
	source.requests = append(source.requests, pageRequest)
	gate := source.gates[pageRequest.Page]
	fetchErr := source.fetchErr
	source.mutex.Unlock()

	if gate != nil {
		<-gate
	}
	if fetchErr != nil {
		return model.SubscriberPage{}, fetchErr
	}

	source.mutex.Lock()
	defer source.mutex.Unlock()
	total := len(source.subscribers)
	offset := model.Offset(pageRequest.Page, pageRequest.PerPage)
	var rows []model.Subscriber
	if offset < total {
		end := offset + pageRequest.PerPage
		if end > total {
			end = total
		}
		rows = append(rows, source.subscribers[offset:end]...)
	}
	return model.NewPage(rows, int64(total), pageRequest.PerPage, pageRequest.Page), nil
}

func (source *fakeSource) DeleteSubscriber(ctx context.Context, subscriberID string) error {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	if source.deleteErr != nil {
		return source.deleteErr
	}
	for index, subscriber := range source.subscribers {
		if subscriber.ID == subscriberID {
			source.subscribers = append(source.subscribers[:index], source.subscribers[index+1:]...)
			source.deleted = append(source.deleted, subscriberID)
			return nil
		}
	}
	return errTestSourceFailure
}

type recordingNotifier struct {
	mutex     sync.Mutex
	successes []string
	errors    []string
}

func (notifier *recordingNotifier) Success(title string, text string) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	notifier.successes = append(notifier.successes, title+": "+text)
}

func (notifier *recordingNotifier) Error(title string, text string) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	notifier.errors = append(notifier.errors, title+": "+text)
}

type countingReloader struct {
	mutex sync.Mutex
	count int
}

func (reloader *countingReloader) Reload(context.Context) error {
	reloader.mutex.Lock()
	defer reloader.mutex.Unlock()
	reloader.count++
	return nil
}

func (reloader *countingReloader) reloads() int {
	reloader.mutex.Lock()
	defer reloader.mutex.Unlock()
	return reloader.count
}

func answer(confirmed bool) subscribers.ConfirmerFunc {
	return func(context.Context, subscribers.Confirmation) (bool, error) {
		return confirmed, nil
	}
}

func newTestTable(testingT *testing.T, source *fakeSource, confirmer subscribers.Confirmer, notifier subscribers.Notifier, reloader subscribers.Reloader, mode subscribers.ReloadMode) *subscribers.Table {
	testingT.Helper()
	table, tableErr := subscribers.New(source, confirmer, notifier, reloader, subscribers.Config{
		ListID:     testListID,
		ReloadMode: mode,
		Logger:     zap.NewNop(),
	})
	require.NoError(testingT, tableErr)
	return table
}

func TestNewRequiresListID(testingT *testing.T) {
	_, tableErr := subscribers.New(newFakeSource(0), nil, nil, nil, subscribers.Config{})
	require.ErrorIs(testingT, tableErr, subscribers.ErrMissingListID)
}

func TestTableStartsEmpty(testingT *testing.T) {
	table := newTestTable(testingT, newFakeSource(3), nil, nil, nil, subscribers.ReloadDocument)
	require.Empty(testingT, table.Rows())
	require.Nil(testingT, table.Pagination())
}

func TestMountLoadsFirstPageAndInitializesPagination(testingT *testing.T) {
	source := newFakeSource(23)
	table := newTestTable(testingT, source, nil, nil, nil, subscribers.ReloadDocument)

	require.NoError(testingT, table.Mount(context.Background()))

	require.Equal(testingT, []model.PageRequest{{Paginate: true, PerPage: 10, Page: 1}}, source.requests)
	rows := table.Rows()
	require.Len(testingT, rows, 10)
	require.Equal(testingT, subscribers.Row{ID: "sub-01", Name: "Subscriber 1", Email: "subscriber1@example.com"}, rows[0])

	control := table.Pagination()
	require.NotNil(testingT, control)
	require.Equal(testingT, 3, control.Total())
	require.Equal(testingT, 1, control.Page())
	require.Equal(testingT, []int{1, 2, 3}, control.Visible())
}

func TestMountFailureLeavesStateUntouched(testingT *testing.T) {
	source := newFakeSource(5)
	source.fetchErr = errTestSourceFailure
	table := newTestTable(testingT, source, nil, nil, nil, subscribers.ReloadDocument)

	require.ErrorIs(testingT, table.Mount(context.Background()), errTestSourceFailure)
	require.Empty(testingT, table.Rows())
	require.Nil(testingT, table.Pagination())
}

func TestPageRowCountMatchesRemainingSubscribers(testingT *testing.T) {
	const subscriberCount = 23
	const perPage = 10
	source := newFakeSource(subscriberCount)
	table := newTestTable(testingT, source, nil, nil, nil, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))

	for page := 1; page <= 4; page++ {
		require.NoError(testingT, table.ChangePage(context.Background(), page))
		expectedRows := subscriberCount - perPage*(page-1)
		if expectedRows > perPage {
			expectedRows = perPage
		}
		if expectedRows < 0 {
			expectedRows = 0
		}
		require.Len(testingT, table.Rows(), expectedRows, "page %d", page)
	}
}

func TestPageChangeEventRefetchesAndMovesIndicator(testingT *testing.T) {
	source := newFakeSource(23)
	table := newTestTable(testingT, source, nil, nil, nil, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))

	control := table.Pagination()
	control.Select(3)

	require.Eventually(testingT, func() bool {
		return table.Page().CurrentPage == 3 && control.Page() == 3
	}, eventuallyTimeout, eventuallyPollPeriod)
	require.Len(testingT, table.Rows(), 3)
}

func TestLastResolvedFetchWins(testingT *testing.T) {
	source := newFakeSource(40)
	table := newTestTable(testingT, source, nil, nil, nil, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))

	slowPageGate := source.gate(2)
	slowFetch := table.RequestPage(2)
	fastFetch := table.RequestPage(3)

	_, fastErr := fastFetch.Wait()
	require.NoError(testingT, fastErr)
	require.Equal(testingT, 3, table.Page().CurrentPage)
	require.Equal(testingT, 3, table.Pagination().Page())

	close(slowPageGate)
	_, slowErr := slowFetch.Wait()
	require.NoError(testingT, slowErr)
	require.Equal(testingT, 2, table.Page().CurrentPage)
	require.Equal(testingT, 2, table.Pagination().Page())
}

func TestPaginationNavigationAppliesThroughEvents(testingT *testing.T) {
	source := newFakeSource(23)
	table := newTestTable(testingT, source, nil, nil, nil, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))
	require.NoError(testingT, table.Settle())

	control := table.Pagination()
	control.Next()
	require.NoError(testingT, table.Settle())
	require.Equal(testingT, 2, table.Page().CurrentPage)
	require.Equal(testingT, 2, control.Page())

	control.Select(9)
	require.NoError(testingT, table.Settle())
	require.Equal(testingT, 3, table.Page().CurrentPage)
	require.Equal(testingT, 3, control.Page())
	require.Len(testingT, table.Rows(), 3)

	control.Next()
	require.NoError(testingT, table.Settle())
	control.Previous()
	require.NoError(testingT, table.Settle())
	require.Equal(testingT, 2, control.Page())
	require.Len(testingT, source.requests, 4)
}

func TestSettleReportsFailedNavigation(testingT *testing.T) {
	source := newFakeSource(23)
	table := newTestTable(testingT, source, nil, nil, nil, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))

	source.mutex.Lock()
	source.fetchErr = errTestSourceFailure
	source.mutex.Unlock()

	table.Pagination().Next()
	require.ErrorIs(testingT, table.Settle(), errTestSourceFailure)
	require.Equal(testingT, 1, table.Page().CurrentPage)
	require.Equal(testingT, 1, table.Pagination().Page())
	require.NoError(testingT, table.Settle())
}

func TestDeleteCancelledWithoutRequest(testingT *testing.T) {
	source := newFakeSource(3)
	notifier := &recordingNotifier{}
	reloader := &countingReloader{}
	table := newTestTable(testingT, source, answer(false), notifier, reloader, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))

	outcome, deleteErr := table.Delete(context.Background(), "sub-01")
	require.NoError(testingT, deleteErr)
	require.Equal(testingT, subscribers.OutcomeCancelled, outcome)
	require.Empty(testingT, source.deleted)
	require.Empty(testingT, notifier.successes)
	require.Zero(testingT, reloader.reloads())
}

func TestDeleteShowsConfirmationText(testingT *testing.T) {
	var asked subscribers.Confirmation
	confirmer := subscribers.ConfirmerFunc(func(_ context.Context, confirmation subscribers.Confirmation) (bool, error) {
		asked = confirmation
		return false, nil
	})
	table := newTestTable(testingT, newFakeSource(1), confirmer, nil, nil, subscribers.ReloadDocument)

	_, deleteErr := table.Delete(context.Background(), "sub-01")
	require.NoError(testingT, deleteErr)
	require.Equal(testingT, subscribers.Confirmation{
		Title:        subscribers.ConfirmDeleteTitle,
		Text:         subscribers.ConfirmDeleteText,
		ConfirmLabel: subscribers.ConfirmDeleteButtonLabel,
	}, asked)
}

func TestDeleteSuccessTriggersFullReload(testingT *testing.T) {
	source := newFakeSource(3)
	notifier := &recordingNotifier{}
	reloader := &countingReloader{}
	table := newTestTable(testingT, source, answer(true), notifier, reloader, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))

	outcome, deleteErr := table.Delete(context.Background(), "sub-02")
	require.NoError(testingT, deleteErr)
	require.Equal(testingT, subscribers.OutcomeDeleted, outcome)
	require.Equal(testingT, []string{"sub-02"}, source.deleted)
	require.Equal(testingT, []string{subscribers.DeleteSucceededTitle + ": " + subscribers.DeleteSucceededText}, notifier.successes)
	require.Equal(testingT, 1, reloader.reloads())
}

func TestDeleteFailureKeepsSubscriberListed(testingT *testing.T) {
	source := newFakeSource(3)
	source.deleteErr = errTestSourceFailure
	notifier := &recordingNotifier{}
	reloader := &countingReloader{}
	table := newTestTable(testingT, source, answer(true), notifier, reloader, subscribers.ReloadDocument)
	require.NoError(testingT, table.Mount(context.Background()))

	outcome, deleteErr := table.Delete(context.Background(), "sub-02")
	require.ErrorIs(testingT, deleteErr, errTestSourceFailure)
	require.Equal(testingT, subscribers.OutcomeFailed, outcome)
	require.Equal(testingT, []string{subscribers.DeleteFailedTitle + ": " + subscribers.DeleteFailedText}, notifier.errors)
	require.Zero(testingT, reloader.reloads())

	rows := table.Rows()
	require.Len(testingT, rows, 3)
	require.Equal(testingT, "sub-02", rows[1].ID)
}

func TestIncrementalReloadRefetchesCurrentPage(testingT *testing.T) {
	source := newFakeSource(12)
	reloader := &countingReloader{}
	table := newTestTable(testingT, source, answer(true), nil, reloader, subscribers.ReloadIncremental)
	require.NoError(testingT, table.Mount(context.Background()))

	outcome, deleteErr := table.Delete(context.Background(), "sub-01")
	require.NoError(testingT, deleteErr)
	require.Equal(testingT, subscribers.OutcomeDeleted, outcome)
	require.Zero(testingT, reloader.reloads())

	rows := table.Rows()
	require.Len(testingT, rows, 10)
	require.Equal(testingT, "sub-02", rows[0].ID)
	require.Equal(testingT, "sub-11", rows[9].ID)
	require.Equal(testingT, 2, table.Pagination().Total())
}

func TestIncrementalReloadStepsBackFromEmptiedPage(testingT *testing.T) {
	source := newFakeSource(11)
	table := newTestTable(testingT, source, answer(true), nil, nil, subscribers.ReloadIncremental)
	require.NoError(testingT, table.MountAt(context.Background(), 2))
	require.Len(testingT, table.Rows(), 1)

	_, deleteErr := table.Delete(context.Background(), "sub-11")
	require.NoError(testingT, deleteErr)

	require.Equal(testingT, 1, table.Page().CurrentPage)
	require.Equal(testingT, 1, table.Pagination().Page())
	require.Equal(testingT, 1, table.Pagination().Total())
	require.Len(testingT, table.Rows(), 10)
}

func TestOutcomeString(testingT *testing.T) {
	require.Equal(testingT, "deleted", subscribers.OutcomeDeleted.String())
	require.Equal(testingT, "failed", subscribers.OutcomeFailed.String())
	require.Equal(testingT, "cancelled", subscribers.OutcomeCancelled.String())
}
