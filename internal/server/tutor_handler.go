// Package server provides the Connect RPC handler of the tutor service.
package server

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/at-ishikawa/neotutor/internal/contact"
	"github.com/at-ishikawa/neotutor/internal/tutor"
)

const (
	ErrorDomain             = "neotutor"
	ReasonAnswerUnavailable = "ANSWER_UNAVAILABLE"
)

// Asker is satisfied by *tutor.Handler.
type Asker interface {
	Ask(ctx context.Context, query string) (tutor.Result, bool)
}

// TutorHandler implements TutorServiceHandler.
type TutorHandler struct {
	asker     Asker
	links     contact.Links
	validator *requestValidator
}

func NewTutorHandler(asker Asker, links contact.Links, maxQuestionLength int) (*TutorHandler, error) {
	v, err := newRequestValidator(maxQuestionLength)
	if err != nil {
		return nil, fmt.Errorf("newRequestValidator() > %w", err)
	}
	return &TutorHandler{
		asker:     asker,
		links:     links,
		validator: v,
	}, nil
}

// Ask answers one question. Failures of the text-generation service are
// reported as unavailable with the contact links attached.
func (h *TutorHandler) Ask(
	ctx context.Context,
	req *connect.Request[AskRequest],
) (*connect.Response[AskResponse], error) {
	msg := AskRequest{Question: strings.TrimSpace(req.Msg.Question)}
	if err := h.validator.validateRequest(msg); err != nil {
		return nil, err
	}

	result, ok := h.asker.Ask(ctx, msg.Question)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("question is empty"))
	}
	if !result.OK() {
		return nil, h.unavailableError(result.Err)
	}
	return connect.NewResponse(&AskResponse{Answer: result.Text}), nil
}

func (h *TutorHandler) GetContactLinks(
	_ context.Context,
	_ *connect.Request[GetContactLinksRequest],
) (*connect.Response[ContactLinksResponse], error) {
	return connect.NewResponse(&ContactLinksResponse{
		BookingFormURL: h.links.BookingFormURL,
		MessagingURL:   h.links.MessagingURL,
	}), nil
}

func (h *TutorHandler) unavailableError(err error) *connect.Error {
	connectErr := connect.NewError(connect.CodeUnavailable, err)

	metadata := make(map[string]string)
	for _, l := range h.links.All() {
		metadata[l.Name+"_url"] = l.URL
	}
	if detail, detailErr := connect.NewErrorDetail(&errdetails.ErrorInfo{
		Reason:   ReasonAnswerUnavailable,
		Domain:   ErrorDomain,
		Metadata: metadata,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}
