package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cloudharbor/s3front/gateway/api"
	"github.com/cloudharbor/s3front/middleware"
	"github.com/cloudharbor/s3front/server"
	"github.com/minio/mux"
)

const slashSeparator = "/"

type GatewayServer struct {
	fqdns []string

	port int

	//The TLS certificate used to encrypt traffic with if omitted HTTP server will be spawned
	tlsCertFilePath string

	//The TLS key used to encrypt traffic with if omitted HTTP server will be spawned
	tlsKeyFilePath string

	//Which backend serves which bucket
	catalog *BackendCatalog

	//middleware chains applied in front of each operation handler
	mws []middleware.Middleware

	router *mux.Router
}

func NewGatewayServer(
	serverPort int,
	fqdns []string,
	tlsCertFilePath string,
	tlsKeyFilePath string,
	bucketConfigFilePath string,
) (s server.Serverable, err error) {
	catalog, err := LoadBackendCatalog(context.Background(), bucketConfigFilePath)
	if err != nil {
		return nil, err
	}
	return newGatewayServer(serverPort, fqdns, tlsCertFilePath, tlsKeyFilePath, catalog, nil)
}

func newGatewayServer(
	serverPort int,
	fqdns []string,
	tlsCertFilePath string,
	tlsKeyFilePath string,
	catalog *BackendCatalog,
	mws []middleware.Middleware,
) (s *GatewayServer, err error) {
	s = &GatewayServer{
		fqdns:           fqdns,
		port:            serverPort,
		tlsCertFilePath: tlsCertFilePath,
		tlsKeyFilePath:  tlsKeyFilePath,
		catalog:         catalog,
		mws:             mws,
	}
	router := mux.NewRouter().SkipClean(true).UseEncodedPath()
	err = s.RegisterRoutes(router)
	if err != nil {
		return nil, err
	}
	s.router = router
	return s, nil
}

func (s *GatewayServer) GetPort() int {
	return s.port
}

func (s *GatewayServer) GetListenHost() string {
	if len(s.fqdns) == 0 {
		return "localhost"
	}
	return s.fqdns[0]
}

func (s *GatewayServer) GetTls() (enabled bool, certFile string, keyFile string) {
	enabled = true
	if s.tlsCertFilePath == "" {
		slog.Debug("Disabling TLS", "reason", "no certFile provided")
		enabled = false
	} else if s.tlsKeyFilePath == "" {
		slog.Debug("Disabling TLS", "reason", "no keyFile provided")
		enabled = false
	}
	return enabled, s.tlsCertFilePath, s.tlsKeyFilePath
}

func (s *GatewayServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

//The handler for one operation is the dispatch handler prefixed with the
//middleware that registers which operation was routed. Operation registration
//sits innermost because it needs the requestctx the outer middleware creates.
func (s *GatewayServer) operationHandler(operation api.S3Operation) http.HandlerFunc {
	mws := append(append([]middleware.Middleware{}, s.mws...), middleware.RegisterOperation(operation))
	return middleware.Chain(s.handleOperation, mws...)
}

//Register routes to the gateway router. Route shapes follow the S3 API:
//query parameters discriminate sub-operations before path fallbacks match.
func (s *GatewayServer) RegisterRoutes(router *mux.Router) error {
	gwRouter := router.NewRoute().PathPrefix(slashSeparator).Subrouter()
	gwRouter.Methods(http.MethodGet).Queries("list-type", "2").HandlerFunc(
		s.operationHandler(api.ListObjectsV2))
	gwRouter.Methods(http.MethodGet).Path("/").HandlerFunc(
		s.operationHandler(api.ListBuckets))
	//Path-style addressing: a bucket-only path targets the bucket itself
	gwRouter.Methods(http.MethodGet).Path("/{bucket:[^/]+}").HandlerFunc(
		s.operationHandler(api.ListObjectsV2))
	gwRouter.Methods(http.MethodGet).Path("/{bucket:[^/]+}/").HandlerFunc(
		s.operationHandler(api.ListObjectsV2))
	gwRouter.Methods(http.MethodGet).HandlerFunc(
		s.operationHandler(api.GetObject))
	gwRouter.Methods(http.MethodHead).Path("/{bucket:[^/]+}").HandlerFunc(
		s.operationHandler(api.HeadBucket))
	gwRouter.Methods(http.MethodHead).Path("/{bucket:[^/]+}/").HandlerFunc(
		s.operationHandler(api.HeadBucket))
	gwRouter.Methods(http.MethodHead).HandlerFunc(
		s.operationHandler(api.HeadObject))
	gwRouter.Methods(http.MethodDelete).HandlerFunc(
		s.operationHandler(api.DeleteObject))

	gwRouter.PathPrefix("/").HandlerFunc(s.operationHandler(api.UnknownOperation))
	gwRouter.NewRoute().HandlerFunc(s.operationHandler(api.UnknownOperation))
	return nil
}
