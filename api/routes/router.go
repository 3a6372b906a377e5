package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sliceline/pizzeria-backend/api/controllers"
	"github.com/sliceline/pizzeria-backend/api/middleware"
	addresssvc "github.com/sliceline/pizzeria-backend/internal/address"
	authsvc "github.com/sliceline/pizzeria-backend/internal/auth"
	cartsvc "github.com/sliceline/pizzeria-backend/internal/cart"
	catalogsvc "github.com/sliceline/pizzeria-backend/internal/catalog"
	ordersvc "github.com/sliceline/pizzeria-backend/internal/orders"
	supportsvc "github.com/sliceline/pizzeria-backend/internal/support"
	"github.com/sliceline/pizzeria-backend/pkg/auth/session"
	"github.com/sliceline/pizzeria-backend/pkg/config"
	"github.com/sliceline/pizzeria-backend/pkg/db"
	"github.com/sliceline/pizzeria-backend/pkg/enums"
	"github.com/sliceline/pizzeria-backend/pkg/logger"
	"github.com/sliceline/pizzeria-backend/pkg/metrics"
	pkgredis "github.com/sliceline/pizzeria-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	sessions session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	authService authsvc.Service,
	catalogService catalogsvc.Service,
	cartService cartsvc.Service,
	ordersService ordersvc.Service,
	addressService addresssvc.Service,
	supportService supportsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg), middleware.Idempotency(redisClient, logg)).
			Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/verify-otp", controllers.AuthVerifyOTP(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/resend-otp", controllers.AuthResendOTP(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).
			Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/pizzas", controllers.PizzaList(catalogService, logg))
		r.Get("/pizzas/{pizzaId}", controllers.PizzaDetail(catalogService, logg))
		r.Get("/toppings", controllers.ToppingList(catalogService, logg))
		r.Post("/contact", controllers.ContactSubmit(supportService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Post("/add", controllers.CartAddItem(cartService, logg))
				r.Put("/update/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/remove/{itemId}", controllers.CartRemoveItem(cartService, logg))
				r.Delete("/clear", controllers.CartClear(cartService, logg))
				r.Post("/discount", controllers.CartApplyDiscount(cartService, logg))
				r.Delete("/discount", controllers.CartRemoveDiscount(cartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/create", controllers.OrderCreate(ordersService, logg))
				r.Post("/create-cod", controllers.OrderCreateCOD(ordersService, logg))
				r.Get("/", controllers.OrderList(ordersService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
				r.Put("/{orderId}/cancel", controllers.OrderCancel(ordersService, logg))
				r.Post("/{orderId}/review", controllers.OrderReview(ordersService, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(addressService, logg))
				r.Post("/", controllers.AddressCreate(addressService, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(addressService, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(addressService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleStaff), string(enums.UserRoleAdmin)))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(ordersService, logg))
			r.Put("/{orderId}/status", controllers.AdminOrderUpdateStatus(ordersService, logg))
		})
		r.Route("/contact", func(r chi.Router) {
			r.Get("/", controllers.AdminContactList(supportService, logg))
			r.Put("/{messageId}/resolve", controllers.AdminContactResolve(supportService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin)))
			r.Route("/pizzas", func(r chi.Router) {
				r.Post("/", controllers.AdminPizzaCreate(catalogService, logg))
				r.Put("/{pizzaId}", controllers.AdminPizzaUpdate(catalogService, logg))
				r.Delete("/{pizzaId}", controllers.AdminPizzaDelete(catalogService, logg))
			})
			r.Route("/toppings", func(r chi.Router) {
				r.Post("/", controllers.AdminToppingCreate(catalogService, logg))
				r.Put("/{toppingId}", controllers.AdminToppingUpdate(catalogService, logg))
			})
		})
	})

	return r
}
