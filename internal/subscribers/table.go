// Package subscribers holds the view state of a mailing list's subscriber table:
// exactly one fetched page, a pagination control kept in step with the server's
// page metadata, and the confirm-then-delete flow for a row.
package subscribers

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/apiclient"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/pagination"
)

const (
	DefaultPerPage = 10

	ConfirmDeleteTitle        = "Are you sure?"
	ConfirmDeleteText         = "You will not be able to recover this subscriber!"
	ConfirmDeleteButtonLabel  = "Yes, delete it!"
	DeleteSucceededTitle      = "Success"
	DeleteSucceededText       = "The subscriber was successfully removed!"
	DeleteFailedTitle         = "Could not delete"
	DeleteFailedText          = "Could not delete the subscriber. Try again."
	logEventMountTable        = "mount_subscribers_table"
	logEventFetchPage         = "fetch_subscribers_page"
	logEventDeleteSubscriber  = "delete_subscriber"
	logEventReloadTable       = "reload_subscribers_table"
	errorMessageMissingListID = "subscribers: missing list id"
	errorMessageNotMounted    = "subscribers: table not mounted"
)

var (
	// ErrMissingListID indicates the table was configured without a list.
	ErrMissingListID = errors.New(errorMessageMissingListID)
	// ErrNotMounted indicates an operation that needs loaded state ran before Mount succeeded.
	ErrNotMounted = errors.New(errorMessageNotMounted)
)

// Source reads and deletes subscribers. apiclient.ListClient satisfies it.
type Source interface {
	GetSubscribers(ctx context.Context, listID string, pageRequest model.PageRequest) (model.SubscriberPage, error)
	DeleteSubscriber(ctx context.Context, subscriberID string) error
}

// Confirmation is the question shown before a destructive action.
type Confirmation struct {
	Title        string
	Text         string
	ConfirmLabel string
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, confirmation Confirmation) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, confirmation Confirmation) (bool, error)

func (function ConfirmerFunc) Confirm(ctx context.Context, confirmation Confirmation) (bool, error) {
	return function(ctx, confirmation)
}

// Notifier shows the outcome of an action to the operator.
type Notifier interface {
	Success(title string, text string)
	Error(title string, text string)
}

// Reloader reloads the whole view after a successful delete.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) error

func (function ReloaderFunc) Reload(ctx context.Context) error {
	return function(ctx)
}

// ReloadMode selects what happens after a subscriber is deleted.
type ReloadMode int

const (
	// ReloadDocument hands control to the Reloader, discarding the view.
	ReloadDocument ReloadMode = iota
	// ReloadIncremental drops the row locally and re-fetches the current page.
	ReloadIncremental
)

// Outcome reports how a delete flow ended.
type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeDeleted
	OutcomeFailed
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeFailed:
		return "failed"
	default:
		return "cancelled"
	}
}

// Config captures the list shown by a Table and how it behaves.
type Config struct {
	ListID     string
	PerPage    int
	MaxVisible int
	ReloadMode ReloadMode
	Logger     *zap.Logger
}

// Row is one rendered subscriber.
type Row struct {
	ID    string
	Name  string
	Email string
}

// Table is the subscriber table of one mailing list. Methods are safe for
// concurrent use; page fetches are not ordered, so the last one to resolve wins.
type Table struct {
	source    Source
	confirmer Confirmer
	notifier  Notifier
	reloader  Reloader
	config    Config
	logger    *zap.Logger

	mutex         sync.Mutex
	page          model.SubscriberPage
	control       *pagination.Control
	eventContext  context.Context
	latestRequest *apiclient.Pending[model.SubscriberPage]
}

// New builds an unmounted table. Nil confirmer, notifier or reloader fall back
// to always-confirm, silent and no-op implementations.
func New(source Source, confirmer Confirmer, notifier Notifier, reloader Reloader, configuration Config) (*Table, error) {
	if configuration.ListID == "" {
		return nil, ErrMissingListID
	}
	if configuration.PerPage <= 0 {
		configuration.PerPage = DefaultPerPage
	}
	if configuration.MaxVisible <= 0 {
		configuration.MaxVisible = pagination.DefaultMaxVisible
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if confirmer == nil {
		confirmer = ConfirmerFunc(func(context.Context, Confirmation) (bool, error) { return true, nil })
	}
	if notifier == nil {
		notifier = silentNotifier{}
	}
	if reloader == nil {
		reloader = ReloaderFunc(func(context.Context) error { return nil })
	}
	return &Table{
		source:       source,
		confirmer:    confirmer,
		notifier:     notifier,
		reloader:     reloader,
		config:       configuration,
		logger:       logger.With(zap.String("list_id", configuration.ListID)),
		page:         model.EmptyPage[model.Subscriber](),
		eventContext: context.Background(),
	}, nil
}

// Mount loads the first page and initializes the pagination control from the
// server's page metadata. Page-change events on the control re-fetch pages.
func (table *Table) Mount(ctx context.Context) error {
	return table.MountAt(ctx, 1)
}

// MountAt is Mount starting from an arbitrary page.
func (table *Table) MountAt(ctx context.Context, page int) error {
	fetchedPage, fetchErr := table.fetch(ctx, page)
	if fetchErr != nil {
		table.logger.Warn(logEventMountTable, zap.Error(fetchErr))
		return fetchErr
	}

	control := pagination.New(fetchedPage.LastPage, fetchedPage.CurrentPage, table.config.MaxVisible)
	control.Subscribe(func(requestedPage int) {
		table.RequestPage(requestedPage)
	})

	table.mutex.Lock()
	table.page = fetchedPage
	table.control = control
	table.eventContext = context.WithoutCancel(ctx)
	table.mutex.Unlock()
	return nil
}

// RequestPage fetches page in the background. A successful fetch is applied
// before the returned result resolves. In-flight fetches are never cancelled.
func (table *Table) RequestPage(page int) *apiclient.Pending[model.SubscriberPage] {
	table.mutex.Lock()
	eventContext := table.eventContext
	table.mutex.Unlock()

	pending := apiclient.Go(eventContext, func(ctx context.Context) (model.SubscriberPage, error) {
		fetchedPage, fetchErr := table.fetch(ctx, page)
		if fetchErr != nil {
			return fetchedPage, fetchErr
		}
		table.apply(fetchedPage)
		return fetchedPage, nil
	})
	pending.Then(nil, func(fetchErr error) {
		table.logger.Warn(logEventFetchPage, zap.Int("page", page), zap.Error(fetchErr))
	})

	table.mutex.Lock()
	table.latestRequest = pending
	table.mutex.Unlock()
	return pending
}

// Settle waits for the latest page request and reports its error. It returns
// nil when no request is outstanding.
func (table *Table) Settle() error {
	table.mutex.Lock()
	pending := table.latestRequest
	table.mutex.Unlock()
	if pending == nil {
		return nil
	}

	_, waitErr := pending.Wait()

	table.mutex.Lock()
	if table.latestRequest == pending {
		table.latestRequest = nil
	}
	table.mutex.Unlock()
	return waitErr
}

// ChangePage fetches page and applies it before returning.
func (table *Table) ChangePage(ctx context.Context, page int) error {
	fetchedPage, fetchErr := table.fetch(ctx, page)
	if fetchErr != nil {
		table.logger.Warn(logEventFetchPage, zap.Int("page", page), zap.Error(fetchErr))
		return fetchErr
	}
	table.apply(fetchedPage)
	return nil
}

// Delete runs the confirm-then-delete flow for subscriberID.
func (table *Table) Delete(ctx context.Context, subscriberID string) (Outcome, error) {
	confirmed, confirmErr := table.confirmer.Confirm(ctx, Confirmation{
		Title:        ConfirmDeleteTitle,
		Text:         ConfirmDeleteText,
		ConfirmLabel: ConfirmDeleteButtonLabel,
	})
	if confirmErr != nil {
		return OutcomeCancelled, confirmErr
	}
	if !confirmed {
		return OutcomeCancelled, nil
	}

	if deleteErr := table.source.DeleteSubscriber(ctx, subscriberID); deleteErr != nil {
		table.logger.Warn(logEventDeleteSubscriber, zap.String("subscriber_id", subscriberID), zap.Error(deleteErr))
		table.notifier.Error(DeleteFailedTitle, DeleteFailedText)
		return OutcomeFailed, deleteErr
	}

	table.notifier.Success(DeleteSucceededTitle, DeleteSucceededText)

	var reloadErr error
	switch table.config.ReloadMode {
	case ReloadIncremental:
		reloadErr = table.reloadIncrementally(ctx, subscriberID)
	default:
		reloadErr = table.reloader.Reload(ctx)
	}
	if reloadErr != nil {
		table.logger.Warn(logEventReloadTable, zap.Error(reloadErr))
	}
	return OutcomeDeleted, reloadErr
}

// Page returns a copy of the currently displayed page.
func (table *Table) Page() model.SubscriberPage {
	table.mutex.Lock()
	defer table.mutex.Unlock()
	page := table.page
	page.Data = append([]model.Subscriber(nil), table.page.Data...)
	return page
}

// Rows returns one row per subscriber on the current page.
func (table *Table) Rows() []Row {
	table.mutex.Lock()
	defer table.mutex.Unlock()
	rows := make([]Row, 0, len(table.page.Data))
	for _, subscriber := range table.page.Data {
		rows = append(rows, Row{ID: subscriber.ID, Name: subscriber.Name, Email: subscriber.Email})
	}
	return rows
}

// Pagination returns the pagination control, or nil before Mount succeeds.
func (table *Table) Pagination() *pagination.Control {
	table.mutex.Lock()
	defer table.mutex.Unlock()
	return table.control
}

// ListID reports the list shown by the table.
func (table *Table) ListID() string {
	return table.config.ListID
}

func (table *Table) fetch(ctx context.Context, page int) (model.SubscriberPage, error) {
	return table.source.GetSubscribers(ctx, table.config.ListID, model.PageRequest{
		Paginate: true,
		PerPage:  table.config.PerPage,
		Page:     page,
	})
}

func (table *Table) apply(fetchedPage model.SubscriberPage) {
	table.mutex.Lock()
	defer table.mutex.Unlock()
	table.page = fetchedPage
	if table.control == nil {
		return
	}
	table.control.SetTotal(fetchedPage.LastPage)
	table.control.SetPage(fetchedPage.CurrentPage)
}

func (table *Table) reloadIncrementally(ctx context.Context, subscriberID string) error {
	table.mutex.Lock()
	if table.control == nil {
		table.mutex.Unlock()
		return ErrNotMounted
	}
	remaining := make([]model.Subscriber, 0, len(table.page.Data))
	for _, subscriber := range table.page.Data {
		if subscriber.ID != subscriberID {
			remaining = append(remaining, subscriber)
		}
	}
	table.page.Data = remaining
	currentPage := table.page.CurrentPage
	table.mutex.Unlock()

	if currentPage < 1 {
		currentPage = 1
	}
	fetchedPage, fetchErr := table.fetch(ctx, currentPage)
	if fetchErr != nil {
		return fetchErr
	}
	if len(fetchedPage.Data) == 0 && currentPage > 1 {
		return table.ChangePage(ctx, currentPage-1)
	}
	table.apply(fetchedPage)
	return nil
}

type silentNotifier struct{}

func (silentNotifier) Success(string, string) {}

func (silentNotifier) Error(string, string) {}
