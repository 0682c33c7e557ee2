package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface is implemented by the REST handlers.
type ServerInterface interface {
	// (GET /health/live)
	GetLiveness(w http.ResponseWriter, r *http.Request)
	// (GET /health/ready)
	GetReadiness(w http.ResponseWriter, r *http.Request)
	// (GET /connections)
	ListConnections(w http.ResponseWriter, r *http.Request)
	// (POST /messages)
	PublishMessage(w http.ResponseWriter, r *http.Request)
	// (GET /forwards)
	ListForwards(w http.ResponseWriter, r *http.Request)
	// (POST /forwards)
	CreateForward(w http.ResponseWriter, r *http.Request)
	// (DELETE /forwards/{id})
	DeleteForward(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// (GET /state)
	GetState(w http.ResponseWriter, r *http.Request)
	// (PUT /state/theme)
	PutTheme(w http.ResponseWriter, r *http.Request)
	// (PUT /state/query)
	PutQuery(w http.ResponseWriter, r *http.Request)
	// (GET /snapshots)
	ListSnapshots(w http.ResponseWriter, r *http.Request, params ListSnapshotsParams)
	// (GET /snapshots/{id})
	GetSnapshot(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// (GET /stream)
	StreamMessages(w http.ResponseWriter, r *http.Request, params StreamMessagesParams)
}

// MiddlewareFunc wraps the handler of a single operation.
type MiddlewareFunc func(http.Handler) http.Handler

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError is reported when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// RequiredParamError is reported when a required parameter is absent.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("Query argument %s is required, but not found", e.ParamName)
}

// ServerInterfaceWrapper binds parameters and applies middlewares.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) wrap(handler http.Handler) http.Handler {
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	return handler
}

func (siw *ServerInterfaceWrapper) GetLiveness(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetLiveness)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) GetReadiness(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetReadiness)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) ListConnections(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.ListConnections)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) PublishMessage(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.PublishMessage)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) ListForwards(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.ListForwards)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) CreateForward(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.CreateForward)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) DeleteForward(w http.ResponseWriter, r *http.Request) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteForward(w, r, id)
	})).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) GetState(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetState)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) PutTheme(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.PutTheme)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) PutQuery(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.PutQuery)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	var params ListSnapshotsParams
	err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListSnapshots(w, r, params)
	})).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetSnapshot(w, r, id)
	})).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) StreamMessages(w http.ResponseWriter, r *http.Request) {
	var params StreamMessagesParams
	if _, found := r.URL.Query()["key"]; !found {
		siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: "key"})
		return
	}
	err := runtime.BindQueryParameter("form", true, true, "key", r.URL.Query(), &params.Key)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "key", Err: err})
		return
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.StreamMessages(w, r, params)
	})).ServeHTTP(w, r)
}

// Handler creates the routes with default options.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts every operation of si on a chi router.
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

	base := options.BaseURL
	r.Group(func(r chi.Router) {
		r.Get(base+"/health/live", wrapper.GetLiveness)
		r.Get(base+"/health/ready", wrapper.GetReadiness)
		r.Get(base+"/connections", wrapper.ListConnections)
		r.Post(base+"/messages", wrapper.PublishMessage)
		r.Get(base+"/forwards", wrapper.ListForwards)
		r.Post(base+"/forwards", wrapper.CreateForward)
		r.Delete(base+"/forwards/{id}", wrapper.DeleteForward)
		r.Get(base+"/state", wrapper.GetState)
		r.Put(base+"/state/theme", wrapper.PutTheme)
		r.Put(base+"/state/query", wrapper.PutQuery)
		r.Get(base+"/snapshots", wrapper.ListSnapshots)
		r.Get(base+"/snapshots/{id}", wrapper.GetSnapshot)
		r.Get(base+"/stream", wrapper.StreamMessages)
	})

	return r
}
