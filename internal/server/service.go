package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
)

const TutorServiceName = "neotutor.v1.TutorService"

const (
	TutorServiceAskProcedure             = "/neotutor.v1.TutorService/Ask"
	TutorServiceGetContactLinksProcedure = "/neotutor.v1.TutorService/GetContactLinks"
)

type AskRequest struct {
	Question string `json:"question" validate:"required,question_length"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type GetContactLinksRequest struct{}

type ContactLinksResponse struct {
	BookingFormURL string `json:"booking_form_url"`
	MessagingURL   string `json:"messaging_url"`
}

type TutorServiceHandler interface {
	Ask(context.Context, *connect.Request[AskRequest]) (*connect.Response[AskResponse], error)
	GetContactLinks(context.Context, *connect.Request[GetContactLinksRequest]) (*connect.Response[ContactLinksResponse], error)
}

// NewTutorServiceHandler returns the path the service is mounted on and its handler.
func NewTutorServiceHandler(svc TutorServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	askHandler := connect.NewUnaryHandler(TutorServiceAskProcedure, svc.Ask, opts...)
	getContactLinksHandler := connect.NewUnaryHandler(TutorServiceGetContactLinksProcedure, svc.GetContactLinks, opts...)
	return "/" + TutorServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TutorServiceAskProcedure:
			askHandler.ServeHTTP(w, r)
		case TutorServiceGetContactLinksProcedure:
			getContactLinksHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type TutorServiceClient struct {
	ask             *connect.Client[AskRequest, AskResponse]
	getContactLinks *connect.Client[GetContactLinksRequest, ContactLinksResponse]
}

func NewTutorServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TutorServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &TutorServiceClient{
		ask:             connect.NewClient[AskRequest, AskResponse](httpClient, baseURL+TutorServiceAskProcedure, opts...),
		getContactLinks: connect.NewClient[GetContactLinksRequest, ContactLinksResponse](httpClient, baseURL+TutorServiceGetContactLinksProcedure, opts...),
	}
}

func (c *TutorServiceClient) Ask(ctx context.Context, req *connect.Request[AskRequest]) (*connect.Response[AskResponse], error) {
	return c.ask.CallUnary(ctx, req)
}

func (c *TutorServiceClient) GetContactLinks(ctx context.Context, req *connect.Request[GetContactLinksRequest]) (*connect.Response[ContactLinksResponse], error) {
	return c.getContactLinks.CallUnary(ctx, req)
}

// jsonCodec lets plain Go structs travel over the Connect protocol as JSON.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal > %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("json.Unmarshal > %w", err)
	}
	return nil
}
