package apiclient

import (
	"context"
	"net/http"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
)

const (
	resourceLists       = "lists"
	resourceSubscribers = "subscribers"
)

// ListClient reads the subscribers of mailing lists and removes subscribers.
type ListClient struct {
	transport *transport
}

// NewListClient builds a ListClient for the API at configuration.BaseURL.
func NewListClient(configuration Config) (*ListClient, error) {
	clientTransport, transportErr := newTransport(configuration)
	if transportErr != nil {
		return nil, transportErr
	}
	return &ListClient{transport: clientTransport}, nil
}

// GetSubscribers reads one page of the subscribers of listID.
func (client *ListClient) GetSubscribers(ctx context.Context, listID string, pageRequest model.PageRequest) (model.SubscriberPage, error) {
	page := model.EmptyPage[model.Subscriber]()
	endpoint := client.transport.endpoint(resourceLists, listID, resourceSubscribers)
	if err := client.transport.do(ctx, http.MethodGet, endpoint, pageRequest.Values(), nil, &page); err != nil {
		return model.EmptyPage[model.Subscriber](), err
	}
	if page.Data == nil {
		page.Data = []model.Subscriber{}
	}
	return page, nil
}

// DeleteSubscriber removes the subscriber with the given identifier.
func (client *ListClient) DeleteSubscriber(ctx context.Context, subscriberID string) error {
	endpoint := client.transport.endpoint(resourceSubscribers, subscriberID)
	return client.transport.do(ctx, http.MethodDelete, endpoint, nil, nil, nil)
}
