package http

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Health       *Handler
	Users        *UserHandler
	Accounts     *AccountHandler
	Collaterals  *CollateralHandler
	Transactions *TransactionHandler
}

// PublicRoutes need no bearer token; pass them to middleware.JWTAuth.
var PublicRoutes = []string{"/health", "/metrics", "POST /users"}

func Register(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Health)

	users := e.Group("/users")
	users.POST("", h.Users.Register)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PATCH("/:id/status", h.Users.SetStatus)
	users.PATCH("/:id/kyc", h.Users.SetKYC)

	accounts := e.Group("/accounts")
	accounts.POST("", h.Accounts.Open)
	accounts.GET("", h.Accounts.List)
	accounts.GET("/user/:user_id", h.Accounts.GetByUser)
	accounts.GET("/number/:account_number", h.Accounts.GetByNumber)
	accounts.GET("/:id", h.Accounts.Get)
	accounts.GET("/:id/balance", h.Accounts.Balance)
	accounts.PATCH("/:id/status", h.Accounts.SetStatus)
	accounts.POST("/:id/close", h.Accounts.Close)

	collaterals := e.Group("/collaterals")
	collaterals.POST("", h.Collaterals.Submit)
	collaterals.POST("/", h.Collaterals.Submit)
	collaterals.POST("/upload", h.Collaterals.Upload)
	collaterals.POST("/analyze", h.Collaterals.Quote)
	collaterals.POST("/sweep", h.Collaterals.Sweep)
	collaterals.GET("", h.Collaterals.List)
	collaterals.GET("/", h.Collaterals.List)
	collaterals.GET("/:id", h.Collaterals.Get)
	collaterals.PATCH("/:id", h.Collaterals.Update)
	collaterals.POST("/:id/evaluate", h.Collaterals.Evaluate)
	collaterals.POST("/:id/approve", h.Collaterals.Approve)
	collaterals.POST("/:id/reject", h.Collaterals.Reject)
	collaterals.GET("/:id/images/:index", h.Collaterals.Image)

	txns := e.Group("/transactions")
	txns.POST("", h.Transactions.Create)
	txns.POST("/deposit", h.Transactions.Deposit)
	txns.POST("/withdrawal", h.Transactions.Withdraw)
	txns.POST("/payment", h.Transactions.Pay)
	txns.POST("/interest", h.Transactions.Interest)
	txns.POST("/fee", h.Transactions.Fee)
	txns.POST("/create-loan", h.Transactions.CreateLoan)
	txns.POST("/extend-loan", h.Transactions.ExtendLoan)
	txns.POST("/:id/reverse", h.Transactions.Reverse)
	txns.GET("", h.Transactions.List)
	txns.GET("/account/:account_id", h.Transactions.ListByAccount)
	txns.GET("/user/:user_id", h.Transactions.ListByUser)
	txns.GET("/user/:user_id/summary", h.Transactions.Summary)
	txns.GET("/:id", h.Transactions.Get)
}
