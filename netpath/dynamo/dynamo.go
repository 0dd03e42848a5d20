// Package dynamo is a netpath.Path over a DynamoDB table together with the
// retry taxonomy for DynamoDB API errors.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"

	"github.com/unkn0wn-root/remoteop"
	"github.com/unkn0wn-root/remoteop/netpath"
)

// DescribeAPI is the slice of *dynamodb.Client used to probe the table.
type DescribeAPI interface {
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Path probes a DynamoDB table and gates calls made with Guard: while the
// path is disabled they fail with netpath.ErrDisabled before any request is
// built or sent.
type Path struct {
	db    DescribeAPI
	table string
	gate  netpath.Gate
}

var _ netpath.Path = (*Path)(nil)

func New(db DescribeAPI, table string) *Path { return &Path{db: db, table: table} }

// Enable succeeds once the table is described as ACTIVE or UPDATING.
func (p *Path) Enable(ctx context.Context) error {
	out, err := p.db.DescribeTable(netpath.Probing(ctx), &dynamodb.DescribeTableInput{TableName: aws.String(p.table)})
	if err != nil {
		p.gate.Shut()
		return err
	}
	if out.Table == nil {
		p.gate.Shut()
		return fmt.Errorf("netpath/dynamo: table %s not described", p.table)
	}
	switch out.Table.TableStatus {
	case types.TableStatusActive, types.TableStatusUpdating:
	default:
		p.gate.Shut()
		return fmt.Errorf("netpath/dynamo: table %s is %s", p.table, out.Table.TableStatus)
	}
	p.gate.Open()
	return nil
}

func (p *Path) Disable(context.Context) error {
	p.gate.Shut()
	return nil
}

func (p *Path) Enabled() bool { return p.gate.IsOpen() }

// Guard is a per-call option that routes the call through the path's gate:
//
//	db.GetItem(ctx, in, path.Guard)
func (p *Path) Guard(o *dynamodb.Options) {
	o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
		return stack.Initialize.Add(middleware.InitializeMiddlewareFunc("netpathGate",
			func(ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler) (middleware.InitializeOutput, middleware.Metadata, error) {
				if err := p.gate.Check(ctx); err != nil {
					return middleware.InitializeOutput{}, middleware.Metadata{}, err
				}
				return next.HandleInitialize(ctx, in)
			}), middleware.Before)
	})
}

var retryableCodes = map[string]struct{}{
	"ThrottlingException":                    {},
	"ProvisionedThroughputExceededException": {},
	"RequestLimitExceeded":                   {},
	"InternalServerError":                    {},
	"ServiceUnavailable":                     {},
	"TransactionInProgressException":         {},
}

// Retryable classifies DynamoDB errors. Throttling and server-side faults
// retry; every other API error (validation, missing table, failed condition)
// does not. Non-API errors fall back to remoteop.IsRetryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, netpath.ErrDisabled) {
		return true
	}
	var api smithy.APIError
	if errors.As(err, &api) {
		if _, ok := retryableCodes[api.ErrorCode()]; ok {
			return true
		}
		return api.ErrorFault() == smithy.FaultServer
	}
	return remoteop.IsRetryable(err)
}
