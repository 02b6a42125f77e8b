package apiclient

import (
	"context"
	"net/http"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
)

const resourceTemplates = "templates"

// TemplateClient issues requests against the templates collection.
type TemplateClient struct {
	transport *transport
}

// NewTemplateClient builds a TemplateClient for the API at configuration.BaseURL.
func NewTemplateClient(configuration Config) (*TemplateClient, error) {
	clientTransport, transportErr := newTransport(configuration)
	if transportErr != nil {
		return nil, transportErr
	}
	return &TemplateClient{transport: clientTransport}, nil
}

// All reads one page of templates, or every template when pageRequest.Paginate is false.
func (client *TemplateClient) All(ctx context.Context, pageRequest model.PageRequest) (model.TemplatePage, error) {
	page := model.EmptyPage[model.Template]()
	endpoint := client.transport.endpoint(resourceTemplates)
	if err := client.transport.do(ctx, http.MethodGet, endpoint, pageRequest.Values(), nil, &page); err != nil {
		return model.EmptyPage[model.Template](), err
	}
	if page.Data == nil {
		page.Data = []model.Template{}
	}
	return page, nil
}

// Get reads a single template.
func (client *TemplateClient) Get(ctx context.Context, templateID string) (model.Template, error) {
	var template model.Template
	endpoint := client.transport.endpoint(resourceTemplates, templateID)
	if err := client.transport.do(ctx, http.MethodGet, endpoint, nil, nil, &template); err != nil {
		return model.Template{}, err
	}
	return template, nil
}

// Delete removes a template. Any 2xx status is success.
func (client *TemplateClient) Delete(ctx context.Context, templateID string) error {
	endpoint := client.transport.endpoint(resourceTemplates, templateID)
	return client.transport.do(ctx, http.MethodDelete, endpoint, nil, nil, nil)
}

// Create posts exactly the name and content of input.
func (client *TemplateClient) Create(ctx context.Context, input model.TemplateInput) (model.Template, error) {
	var template model.Template
	endpoint := client.transport.endpoint(resourceTemplates)
	payload := model.TemplateInput{Name: input.Name, Content: input.Content}
	if err := client.transport.do(ctx, http.MethodPost, endpoint, nil, payload, &template); err != nil {
		return model.Template{}, err
	}
	return template, nil
}
