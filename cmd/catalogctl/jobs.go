package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/storefront/catalog/internal/application/catalog"
	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/storefront/catalog/internal/domain/shared"
	"github.com/storefront/catalog/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// job is one operation read from the input stream. A job carrying an idempotency
// key is applied at most once while the key is remembered.
type job struct {
	Op             string          `json:"op"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Request        json.RawMessage `json:"request"`
}

// jobResult is written to the output stream for every job
type jobResult struct {
	Index    int                       `json:"index"`
	Op       string                    `json:"op"`
	Replayed bool                      `json:"replayed,omitempty"`
	Result   any                       `json:"result,omitempty"`
	Error    *jobError                 `json:"error,omitempty"`
	Issues   []catalog.ValidationIssue `json:"issues,omitempty"`
}

type jobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type idRequest struct {
	ID uuid.UUID `json:"id"`
}

type storeRequest struct {
	StoreID uuid.UUID `json:"store_id"`
}

type scopeRequest struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	TenantID       *string   `json:"tenant_id"`
}

type attributeList struct {
	Attributes       []catalogapp.AttributeResponse `json:"attributes"`
	AllowUnknownKeys bool                           `json:"allow_unknown_keys"`
}

type handler func(ctx context.Context, svc *catalogapp.Service, raw json.RawMessage) (any, error)

// handlers maps job op names to service calls
var handlers = map[string]handler{
	"create_organization":     call((*catalogapp.Service).CreateOrganization),
	"update_organization":     call((*catalogapp.Service).UpdateOrganization),
	"delete_organization":     byID((*catalogapp.Service).DeleteOrganization),
	"deactivate_organization": byID((*catalogapp.Service).DeactivateOrganization),

	"create_store":     call((*catalogapp.Service).CreateStore),
	"update_store":     call((*catalogapp.Service).UpdateStore),
	"delete_store":     byID((*catalogapp.Service).DeleteStore),
	"deactivate_store": byID((*catalogapp.Service).DeactivateStore),

	"create_category":    call((*catalogapp.Service).CreateCategory),
	"update_category":    call((*catalogapp.Service).UpdateCategory),
	"move_category":      call((*catalogapp.Service).MoveCategory),
	"reorder_categories": call((*catalogapp.Service).ReorderCategories),
	"delete_category":    byID((*catalogapp.Service).DeleteCategory),
	"get_category_tree": func(ctx context.Context, svc *catalogapp.Service, raw json.RawMessage) (any, error) {
		var req storeRequest
		if err := decode(raw, &req); err != nil {
			return nil, err
		}
		return svc.GetCategoryTree(ctx, req.StoreID)
	},

	"create_item": call((*catalogapp.Service).CreateItem),
	"update_item": call((*catalogapp.Service).UpdateItem),
	"delete_item": byID((*catalogapp.Service).DeleteItem),
	"get_item":    byID((*catalogapp.Service).GetItem),
	"list_items":  call((*catalogapp.Service).ListItems),

	"define_attribute": call((*catalogapp.Service).DefineAttribute),
	"update_attribute": call((*catalogapp.Service).UpdateAttribute),
	"delete_attribute": byID((*catalogapp.Service).DeleteAttribute),
	"list_attributes": func(ctx context.Context, svc *catalogapp.Service, raw json.RawMessage) (any, error) {
		var req scopeRequest
		if err := decode(raw, &req); err != nil {
			return nil, err
		}
		attrs, allowUnknown, err := svc.ListAttributes(ctx, req.OrganizationID, req.TenantID)
		if err != nil {
			return nil, err
		}
		return attributeList{Attributes: attrs, AllowUnknownKeys: allowUnknown}, nil
	},

	"create_user": call((*catalogapp.Service).CreateUser),
}

func call[Req, Resp any](fn func(*catalogapp.Service, context.Context, Req) (Resp, error)) handler {
	return func(ctx context.Context, svc *catalogapp.Service, raw json.RawMessage) (any, error) {
		var req Req
		if err := decode(raw, &req); err != nil {
			return nil, err
		}
		return fn(svc, ctx, req)
	}
}

func byID[Resp any](fn func(*catalogapp.Service, context.Context, uuid.UUID) (Resp, error)) handler {
	return func(ctx context.Context, svc *catalogapp.Service, raw json.RawMessage) (any, error) {
		var req idRequest
		if err := decode(raw, &req); err != nil {
			return nil, err
		}
		return fn(svc, ctx, req.ID)
	}
}

// decode reads a request keeping JSON numbers exact, so payload values and
// attribute defaults are checked against the literal the caller sent
func decode(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return shared.NewDomainError(catalog.CodeInvalidField, "malformed request: "+err.Error())
	}
	return nil
}

// runner executes a stream of jobs against one service
type runner struct {
	svc       *catalogapp.Service
	logger    *zap.Logger
	keepGoing bool

	// replay remembers idempotency keys of applied jobs; nil disables the check
	replay    shared.IdempotencyStore
	replayTTL time.Duration
}

// run reads jobs until EOF and writes one result line per job. It stops at the first
// failed job unless keepGoing is set; the returned error counts the failures.
func (r *runner) run(ctx context.Context, in io.Reader, out io.Writer) error {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	enc := json.NewEncoder(out)

	failed := 0
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var j job
		if err := dec.Decode(&j); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read job %d: %w", index, err)
		}

		res := r.runOne(ctx, index, j)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result %d: %w", index, err)
		}
		if res.Error != nil {
			failed++
			if !r.keepGoing {
				break
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}

func (r *runner) runOne(ctx context.Context, index int, j job) (res jobResult) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalogctl", "job",
		telemetry.WithAttribute(telemetry.SpanAttrOperation, j.Op),
		telemetry.WithAttribute(telemetry.SpanAttrJobIndex, index),
	)
	defer span.End()

	telemetry.WithProfilingLabels(ctx, map[string]string{"op": j.Op}, func(ctx context.Context) {
		res = r.apply(ctx, index, j)
	})
	if res.Error != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrCode, res.Error.Code)
		telemetry.RecordError(span, errors.New(res.Error.Message))
	}
	return res
}

func (r *runner) apply(ctx context.Context, index int, j job) jobResult {
	res := jobResult{Index: index, Op: j.Op}
	log := r.logger.With(zap.Int("index", index), zap.String("op", j.Op))
	h, ok := handlers[j.Op]
	if !ok {
		res.Error = &jobError{Code: "UNKNOWN_OP", Message: fmt.Sprintf("unknown op %q", j.Op)}
		log.Warn("Unknown job op")
		return res
	}

	claimed := false
	if j.IdempotencyKey != "" && r.replay != nil {
		var err error
		claimed, err = r.replay.MarkProcessed(ctx, j.IdempotencyKey, r.replayTTL)
		if err != nil {
			res.Error = &jobError{Code: "INTERNAL", Message: err.Error()}
			log.Error("Job replay check failed", zap.Error(err))
			return res
		}
		if !claimed {
			res.Replayed = true
			log.Info("Skipping replayed job", zap.String("idempotency_key", j.IdempotencyKey))
			return res
		}
	}

	result, err := h(ctx, r.svc, j.Request)
	if err != nil {
		res.Error, res.Issues = describe(err)
		log.Debug("Job failed", zap.Error(err))
		if claimed {
			// a failed job may be sent again
			if ferr := r.replay.Forget(ctx, j.IdempotencyKey); ferr != nil {
				log.Warn("Could not release idempotency key", zap.String("idempotency_key", j.IdempotencyKey), zap.Error(ferr))
			}
		}
		return res
	}
	res.Result = result
	return res
}

// describe maps an error to its wire form. Errors without a domain code are
// reported as INTERNAL.
func describe(err error) (*jobError, []catalog.ValidationIssue) {
	if verrs, ok := catalog.AsValidationErrors(err); ok {
		code := catalog.CodeInvalidField
		if len(verrs.Issues) > 0 {
			code = verrs.Issues[0].Code
		}
		return &jobError{Code: code, Message: verrs.Error()}, verrs.Issues
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return &jobError{Code: de.Code, Message: err.Error()}, nil
	}
	return &jobError{Code: "INTERNAL", Message: err.Error()}, nil
}
