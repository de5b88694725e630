// Package dispatcher executes one chat turn: resolve the request text to an
// operation, bind and validate its arguments, run the report, and shape the
// answer. Resolution failures become clarification prompts rather than
// errors; only infrastructure faults propagate.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/domain"
	"lisearch/backend/internal/llm"
	"lisearch/backend/internal/metrics"
	"lisearch/backend/internal/service"
)

const clarificationText = "I couldn't match that to a store report. I can show top sellers, " +
	"trending products, low stock, sales summaries by category, product details, " +
	"recent transactions, or search the catalog. Could you rephrase?"

type Dispatcher struct {
	resolver llm.Resolver
	svc      *service.Service
	log      zerolog.Logger
}

func New(resolver llm.Resolver, svc *service.Service, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{resolver: resolver, svc: svc, log: log}
}

// Dispatch runs one request through resolve, bind, execute. The returned
// response always carries a session id; a missing one in the request is
// minted here so clients can thread follow-ups.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.ChatResponse{}, domain.NewValidationError("message", "must not be empty")
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	resolution, err := d.resolver.Resolve(ctx, message)
	if err != nil {
		if errors.Is(err, domain.ErrNoMatch) {
			metrics.ObserveResolver(d.resolver.Name(), metrics.OutcomeNoMatch)
			return clarify(sessionID), nil
		}
		metrics.ObserveResolver(d.resolver.Name(), metrics.OutcomeError)
		return domain.ChatResponse{}, err
	}
	metrics.ObserveResolver(d.resolver.Name(), metrics.OutcomeOK)

	call, err := catalog.Bind(resolution.Operation, resolution.Args)
	if err != nil {
		// The resolver produced something outside the contract. That is a
		// resolution miss from the user's point of view, not a caller error.
		d.log.Warn().
			Err(err).
			Str("operation", resolution.Operation).
			Str("session_id", sessionID).
			Msg("resolved call failed binding")
		return clarify(sessionID), nil
	}

	answer, err := d.execute(ctx, call)
	if err != nil {
		if domain.IsValidation(err) || errors.Is(err, domain.ErrNotFound) {
			d.log.Warn().
				Err(err).
				Str("operation", call.Operation).
				Str("session_id", sessionID).
				Msg("resolved call failed execution")
			return clarify(sessionID), nil
		}
		return domain.ChatResponse{}, err
	}

	d.log.Info().
		Str("operation", call.Operation).
		Str("session_id", sessionID).
		Int("rows", answer.RowCount).
		Msg("chat request dispatched")

	return domain.ChatResponse{SessionID: sessionID, Answer: answer}, nil
}

func (d *Dispatcher) execute(ctx context.Context, call catalog.BoundCall) (*domain.ChatAnswer, error) {
	switch call.Operation {
	case catalog.OpTopSelling:
		rows, warnings, err := d.svc.TopSellingProducts(ctx, call.Args.(domain.TopSellingParams))
		if err != nil {
			return nil, err
		}
		return answer(call.Operation, rows, len(rows), warnings), nil

	case catalog.OpTrending:
		rows, warnings, err := d.svc.TrendingProducts(ctx, call.Args.(domain.TrendingParams))
		if err != nil {
			return nil, err
		}
		return answer(call.Operation, rows, len(rows), warnings), nil

	case catalog.OpSearch:
		rows, warnings, err := d.svc.SearchProductsByDescription(ctx, call.Args.(string))
		if err != nil {
			return nil, err
		}
		return answer(call.Operation, rows, len(rows), warnings), nil

	case catalog.OpLowStock:
		rows, warnings, err := d.svc.LowStockProducts(ctx, call.Args.(int))
		if err != nil {
			return nil, err
		}
		return answer(call.Operation, rows, len(rows), warnings), nil

	case catalog.OpSalesSummary:
		rows, warnings, err := d.svc.SalesSummaryByCategory(ctx, call.Args.(int))
		if err != nil {
			return nil, err
		}
		return answer(call.Operation, rows, len(rows), warnings), nil

	case catalog.OpProductDetails:
		row, warnings, err := d.svc.ProductDetails(ctx, call.Args.(domain.ProductDetailsParams))
		if err != nil {
			return nil, err
		}
		return answer(call.Operation, []domain.ProductDetailsRow{*row}, 1, warnings), nil

	case catalog.OpRecent:
		rows, warnings, err := d.svc.RecentTransactions(ctx, call.Args.(int))
		if err != nil {
			return nil, err
		}
		return answer(call.Operation, rows, len(rows), warnings), nil
	}

	return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownOperation, call.Operation)
}

func answer(operation string, rows any, count int, warnings []string) *domain.ChatAnswer {
	return &domain.ChatAnswer{
		Operation: operation,
		Rows:      rows,
		RowCount:  count,
		Warnings:  warnings,
	}
}

func clarify(sessionID string) domain.ChatResponse {
	return domain.ChatResponse{SessionID: sessionID, Clarification: clarificationText}
}
