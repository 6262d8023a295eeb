package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"
	"stockprices-service/internal/infrastructure/http/openapi"
	"stockprices-service/internal/infrastructure/logx"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpstreamDegradedHeader is set on /stocks/external when the body is the
// empty fallback rather than upstream data.
const UpstreamDegradedHeader = "X-Upstream-Degraded"

var _ openapi.ServerInterface = (*Server)(nil)

type Server struct {
	svc  *application.StockService
	ping func(context.Context) error
}

func NewServer(svc *application.StockService) *Server { return &Server{svc: svc} }

// SetReadyCheck installs the check behind /readyz, usually the store ping.
func (s *Server) SetReadyCheck(fn func(context.Context) error) { s.ping = fn }

func (s *Server) ListStocks(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.ListCurrentPrices(r.Context())
	if err != nil {
		logx.WithFields(r.Context()).Error("stocks.list_failed", zap.Error(err))
		internalError(w)
		return
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Symbol < recs[j].Symbol })
	out := make([]openapi.StockPrice, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toStockPrice(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetExternalStocks(w http.ResponseWriter, r *http.Request) {
	res := s.svc.FetchExternalPrices(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if res.Degraded {
		w.Header().Set(UpstreamDegradedHeader, "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}

func (s *Server) GetStock(w http.ResponseWriter, r *http.Request, symbol string) {
	rec, err := s.svc.GetCurrentPrice(r.Context(), symbol)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockPrice(rec))
}

func (s *Server) GetPriceHistory(w http.ResponseWriter, r *http.Request, symbol string, params openapi.GetPriceHistoryParams) {
	limit := 0
	if params.Limit != nil {
		if *params.Limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be positive")
			return
		}
		limit = *params.Limit
	}
	rows, err := s.svc.ListPriceHistory(r.Context(), symbol, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]openapi.PriceHistoryEntry, 0, len(rows))
	for _, h := range rows {
		out = append(out, openapi.PriceHistoryEntry{
			Id:            h.ID,
			Symbol:        string(h.Symbol),
			Price:         h.Price.String(),
			Change:        nullDecimal(h.Change),
			ChangePercent: nullDecimal(h.ChangePercent),
			Timestamp:     h.ObservedAt,
			InsertedAt:    h.InsertedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrNotFound):
		writeError(w, http.StatusNotFound, "stock not found")
	default:
		logx.WithFields(r.Context()).Error("stocks.query_failed", zap.Error(err))
		internalError(w)
	}
}

func toStockPrice(rec domain.PriceRecord) openapi.StockPrice {
	return openapi.StockPrice{
		Symbol:        string(rec.Symbol),
		Price:         rec.Price.String(),
		Change:        nullDecimal(rec.Change),
		ChangePercent: nullDecimal(rec.ChangePercent),
		Timestamp:     rec.ObservedAt,
	}
}

func nullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, openapi.Error{Code: status, Message: msg})
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
