package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquaticpose/aquaticpose-backend/api/controllers"
	"github.com/aquaticpose/aquaticpose-backend/api/middleware"
	authsvc "github.com/aquaticpose/aquaticpose-backend/internal/auth"
	blogsvc "github.com/aquaticpose/aquaticpose-backend/internal/blog"
	categorysvc "github.com/aquaticpose/aquaticpose-backend/internal/categories"
	"github.com/aquaticpose/aquaticpose-backend/internal/locations"
	mediasvc "github.com/aquaticpose/aquaticpose-backend/internal/media"
	productsvc "github.com/aquaticpose/aquaticpose-backend/internal/products"
	promotionsvc "github.com/aquaticpose/aquaticpose-backend/internal/promotions"
	reviewsvc "github.com/aquaticpose/aquaticpose-backend/internal/reviews"
	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	"github.com/aquaticpose/aquaticpose-backend/pkg/db"
	"github.com/aquaticpose/aquaticpose-backend/pkg/logger"
	"github.com/aquaticpose/aquaticpose-backend/pkg/metrics"
	"github.com/aquaticpose/aquaticpose-backend/pkg/redis"
)

// Services groups the domain services wired into the router.
type Services struct {
	Auth       authsvc.Service
	Categories categorysvc.Service
	Products   productsvc.Service
	Promotions promotionsvc.Service
	Reviews    reviewsvc.Service
	Blog       blogsvc.Service
	Media      mediasvc.Service
	Locations  *locations.Client
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

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
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/resend-otp", controllers.AuthResendOTP(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/verify-otp", controllers.AuthVerifyOTP(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(svcs.Categories, logg))
			r.Get("/tree", controllers.CategoryTree(svcs.Categories, logg))
			r.Get("/{categoryId}", controllers.CategoryDetail(svcs.Categories, logg))
			r.Get("/{categoryId}/ancestors", controllers.CategoryAncestors(svcs.Categories, logg))
			r.Get("/{categoryId}/descendants", controllers.CategoryDescendants(svcs.Categories, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(svcs.Products, logg))
			r.Get("/{productId}/promotions", controllers.ProductPromotions(svcs.Promotions, logg))
			r.Get("/{productId}/promotions/best", controllers.ProductBestPromotion(svcs.Promotions, logg))
			r.Get("/{productId}/reviews", controllers.ProductReviews(svcs.Reviews, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Post("/{productId}/reviews", controllers.CreateProductReview(svcs.Reviews, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.PromotionList(svcs.Promotions, logg))
			r.Post("/validate-coupon", controllers.ValidateCoupon(svcs.Promotions, logg))
		})

		r.Route("/blog", func(r chi.Router) {
			r.Get("/", controllers.BlogList(svcs.Blog, logg))
			r.Get("/{slug}", controllers.BlogDetail(svcs.Blog, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/provinces", controllers.LocationProvinces(svcs.Locations, logg))
			r.Get("/provinces/{provinceCode}", controllers.LocationProvinceDetail(svcs.Locations, logg))
			r.Get("/districts/{districtCode}", controllers.LocationDistrictDetail(svcs.Locations, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCategory(svcs.Categories, logg))
			r.Patch("/{categoryId}", controllers.AdminUpdateCategory(svcs.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(svcs.Categories, logg))
			r.Post("/{categoryId}/recount", controllers.AdminRecountCategory(svcs.Categories, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(svcs.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(svcs.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(svcs.Products, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.AdminListPromotions(svcs.Promotions, logg))
			r.Post("/", controllers.AdminCreatePromotion(svcs.Promotions, logg))
			r.Patch("/{promotionId}", controllers.AdminUpdatePromotion(svcs.Promotions, logg))
			r.Delete("/{promotionId}", controllers.AdminDeletePromotion(svcs.Promotions, logg))
		})

		r.Route("/blog", func(r chi.Router) {
			r.Get("/", controllers.AdminBlogList(svcs.Blog, logg))
			r.Post("/", controllers.AdminCreatePost(svcs.Blog, logg))
			r.Patch("/{postId}", controllers.AdminUpdatePost(svcs.Blog, logg))
			r.Delete("/{postId}", controllers.AdminDeletePost(svcs.Blog, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Get("/", controllers.MediaList(svcs.Media, logg))
			r.Post("/", controllers.MediaUpload(svcs.Media, logg))
			r.Delete("/{mediaId}", controllers.MediaDelete(svcs.Media, logg))
		})
	})

	return r
}
