// Package openapi provides primitives to interact with the openapi HTTP API.
package openapi

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Spec is the OpenAPI document served at /openapi.yaml.
//
//go:embed openapi.yaml
var Spec []byte

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StockPrice defines model for StockPrice.
type StockPrice struct {
	Change        *string   `json:"change"`
	ChangePercent *string   `json:"changePercent"`
	Price         string    `json:"price"`
	Symbol        string    `json:"symbol"`
	Timestamp     time.Time `json:"timestamp"`
}

// PriceHistoryEntry defines model for PriceHistoryEntry.
type PriceHistoryEntry struct {
	Change        *string   `json:"change"`
	ChangePercent *string   `json:"changePercent"`
	Id            int64     `json:"id"`
	InsertedAt    time.Time `json:"insertedAt"`
	Price         string    `json:"price"`
	Symbol        string    `json:"symbol"`
	Timestamp     time.Time `json:"timestamp"`
}

// GetPriceHistoryParams defines parameters for GetPriceHistory.
type GetPriceHistoryParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Current price of every known symbol
	// (GET /stocks)
	ListStocks(w http.ResponseWriter, r *http.Request)
	// Rows of the external price API, passed through unmodified
	// (GET /stocks/external)
	GetExternalStocks(w http.ResponseWriter, r *http.Request)
	// Current price of one symbol
	// (GET /stocks/{symbol})
	GetStock(w http.ResponseWriter, r *http.Request, symbol string)
	// Throttled price history, newest first
	// (GET /stocks/{symbol}/history)
	GetPriceHistory(w http.ResponseWriter, r *http.Request, symbol string, params GetPriceHistoryParams)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) wrap(h http.Handler) http.Handler {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	return h
}

// ListStocks operation middleware
func (siw *ServerInterfaceWrapper) ListStocks(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListStocks(w, r)
	})).ServeHTTP(w, r)
}

// GetExternalStocks operation middleware
func (siw *ServerInterfaceWrapper) GetExternalStocks(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetExternalStocks(w, r)
	})).ServeHTTP(w, r)
}

// GetStock operation middleware
func (siw *ServerInterfaceWrapper) GetStock(w http.ResponseWriter, r *http.Request) {
	var symbol string
	err := runtime.BindStyledParameterWithLocation("simple", false, "symbol", runtime.ParamLocationPath, chi.URLParam(r, "symbol"), &symbol)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "symbol", Err: err})
		return
	}
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetStock(w, r, symbol)
	})).ServeHTTP(w, r)
}

// GetPriceHistory operation middleware
func (siw *ServerInterfaceWrapper) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	var symbol string
	err := runtime.BindStyledParameterWithLocation("simple", false, "symbol", runtime.ParamLocationPath, chi.URLParam(r, "symbol"), &symbol)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "symbol", Err: err})
		return
	}

	var params GetPriceHistoryParams
	err = runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetPriceHistory(w, r, symbol, params)
	})).ServeHTTP(w, r)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching OpenAPI spec.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/stocks", wrapper.ListStocks)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/stocks/external", wrapper.GetExternalStocks)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/stocks/{symbol}", wrapper.GetStock)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/stocks/{symbol}/history", wrapper.GetPriceHistory)
	})

	return r
}
