// Package httpserver exposes the JSON HTTP API on top of echo.
package httpserver

import (
	"context"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/productkeeper/internal/logging"
	"github.com/dmitrijs2005/productkeeper/internal/server/auth"
	"github.com/dmitrijs2005/productkeeper/internal/server/models"
	"github.com/dmitrijs2005/productkeeper/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// multipartOverhead is added to the image limit to size the request body
// limit of the upload route.
const multipartOverhead = 1 << 20

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*services.LoginResult, error)
	Logout(ctx context.Context, id auth.Identity) error
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
	CurrentUser(ctx context.Context, id auth.Identity) (*models.User, error)
}

type ProductService interface {
	Create(ctx context.Context, id auth.Identity, req models.CreateProductRequest, image *multipart.FileHeader) (models.PublicProduct, error)
	List(ctx context.Context) ([]models.PublicProduct, error)
	Delete(ctx context.Context, id auth.Identity, productID string) (models.PublicProduct, error)
	Update(ctx context.Context, id auth.Identity, productID string) error
}

type Options struct {
	ExposeErrors       bool
	LoginRatePerSecond float64
	LoginRateBurst     int
	// TrustedProxies lists the ranges whose X-Forwarded-For is believed.
	// With none, the throttle keys on the TCP peer address.
	TrustedProxies []*net.IPNet
	MaxImageSize   int64
}

type Server struct {
	address      string
	echo         *echo.Echo
	users        UserService
	products     ProductService
	logger       logging.Logger
	exposeErrors bool
}

func NewServer(address string, l logging.Logger, us UserService, ps ProductService, opts Options) *Server {
	s := &Server{
		address:      address,
		echo:         echo.New(),
		users:        us,
		products:     ps,
		logger:       l.With("module", "http_server"),
		exposeErrors: opts.ExposeErrors,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleHTTPError
	e.IPExtractor = ipExtractor(opts.TrustedProxies)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	limit := rate.Inf
	if opts.LoginRatePerSecond > 0 {
		limit = rate.Limit(opts.LoginRatePerSecond)
	}
	limiter := newIPRateLimiter(limit, opts.LoginRateBurst)
	throttle := s.throttle(limiter)

	e.POST("/register", s.register, throttle)
	e.POST("/login", s.login, throttle)
	e.POST("/logout", s.requireAuth("logout", s.logout))
	e.GET("/user", s.requireAuth("current_user", s.currentUser))

	e.GET("/products", s.requireAuth("list_products", s.listProducts))
	e.POST("/create-product", s.requireAuth("create_product", s.createProduct), bodyLimit(opts.MaxImageSize+multipartOverhead))
	e.POST("/products/:id", s.requireAuth("update_product", s.updateProduct))
	e.DELETE("/products/:id", s.requireAuth("delete_product", s.deleteProduct))

	return s
}

// ipExtractor never believes forwarding headers from untrusted peers, so a
// client cannot pick its own throttle key.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func bodyLimit(n int64) echo.MiddlewareFunc {
	return middleware.BodyLimit(strconv.FormatInt(n, 10) + "B")
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// handleHTTPError renders router and middleware errors (unknown route,
// body too large, panics) in the same envelope as handler outcomes.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	e := Envelope{Status: statusError, Code: code, Message: message}
	if code >= http.StatusInternalServerError && s.exposeErrors {
		e.Error = err.Error()
	}

	s.logger.Warn(c.Request().Context(), message, "code", code, "path", c.Request().URL.Path, "error", err)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, e)
}
