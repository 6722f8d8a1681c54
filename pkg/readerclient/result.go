package readerclient

import (
	"context"
	"errors"

	"github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// outcome is the result of one query attempt. The reader answers in one of
// three ways: data, an error payload, or neither. Keeping the three cases
// tagged avoids guessing from nullable fields.
type outcome[T any] struct {
	kind outcomeKind
	data T
	errs gqlerror.List
}

type outcomeKind int

const (
	outcomeOk outcomeKind = iota
	outcomeEmpty
	outcomeErr
)

// runQuery executes one GraphQL request and classifies the response.
// Transport failures are returned as plain errors; error payloads from the
// reader come back as an outcomeErr carrying the server's gqlerror list.
func runQuery[T any](
	ctx context.Context,
	client graphql.Client,
	req *graphql.Request,
	isEmpty func(T) bool,
) (outcome[T], error) {
	var data T
	resp := &graphql.Response{Data: &data}
	err := client.MakeRequest(ctx, req, resp)
	if err != nil {
		var errs gqlerror.List
		if errors.As(err, &errs) {
			return outcome[T]{kind: outcomeErr, errs: errs}, nil
		}
		return outcome[T]{}, err
	}
	if isEmpty(data) {
		return outcome[T]{kind: outcomeEmpty}, nil
	}
	return outcome[T]{kind: outcomeOk, data: data}, nil
}

// IsQueryError reports whether err is an error payload returned by the
// reader itself, as opposed to a transport failure.
func IsQueryError(err error) bool {
	var errs gqlerror.List
	return errors.As(err, &errs)
}

// ReaderError is the terminal failure of a single-report fetch. Message is
// the last message reported by the reader, or empty when the reader
// returned no data and no error detail.
type ReaderError struct {
	Message string
}

func (e *ReaderError) Error() string {
	return e.Message
}

// lastMessage extracts the message of the last error in a server error
// payload.
func lastMessage(errs gqlerror.List) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[len(errs)-1].Message
}
