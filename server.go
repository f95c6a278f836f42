package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/middlewares"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"bitbucket.org/mmdatafocus/cafe_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func main() {
	logger := config.GetLogger()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(customErrorLogger(logger))

	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate everything else on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.AuthMiddleware())

	registerRoutes(r)

	// Start listening immediately (startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func registerRoutes(r *gin.Engine) {
	r.POST("/auth/pin-login", pinLoginHandler)

	r.GET("/orders", listOpenOrdersHandler)
	r.GET("/orders/all", listOrdersHandler)
	r.POST("/orders", createOrderHandler)
	r.GET("/orders/:id", getOrderHandler)
	r.POST("/orders/:id/status", setOrderStatusHandler)
	r.POST("/orders/:id/customer", setOrderCustomerHandler)

	r.GET("/orders/:id/items", listOrderItemsHandler)
	r.POST("/orders/:id/items", addItemHandler)
	r.POST("/orders/:id/send", sendItemsHandler)
	r.POST("/items/:id/status", setItemStatusHandler)
	r.GET("/stations/:role/items", listStationItemsHandler)

	r.GET("/orders/:id/invoice", getInvoiceHandler)
	r.POST("/orders/:id/discount", applyDiscountHandler)
	r.GET("/orders/:id/payments", listPaymentsHandler)
	r.POST("/orders/:id/payments", addPaymentHandler)
	r.POST("/orders/:id/split", splitOrderHandler)
	r.POST("/orders/:id/credit", postToCreditHandler)

	r.GET("/customers", listCustomersHandler)
	r.POST("/customers", createCustomerHandler)
	r.GET("/customers/:id", getCustomerHandler)
	r.GET("/customers/:id/ledger", listLedgerHandler)
	r.GET("/customers/:id/balance", getBalanceHandler)
	r.POST("/customers/:id/ledger/charge", addLedgerChargeHandler)
	r.POST("/customers/:id/ledger/payment", addLedgerPaymentHandler)

	r.GET("/products", listProductsHandler)
	r.POST("/products", createProductHandler)
	r.PUT("/products/:id", updateProductHandler)
	r.DELETE("/products/:id", archiveProductHandler)

	r.GET("/staff", listStaffHandler)
	r.POST("/staff", createStaffHandler)
	r.POST("/staff/:id/pin", setStaffPinHandler)
	r.POST("/staff/:id/active", setStaffActiveHandler)

	r.POST("/shifts/open", openShiftHandler)
	r.POST("/shifts/assignments", updateShiftHandler)
	r.POST("/shifts/close", closeShiftHandler)
	r.GET("/shifts/state", shiftStateHandler)
	r.GET("/shifts/history", shiftHistoryHandler)

	r.GET("/events/recent", listEventsHandler)

	r.GET("/reports/shift-summary", shiftSummaryHandler)
	r.GET("/reports/shift-summary.xlsx", shiftSummaryXLSXHandler)
}

// ---- error mapping ----

func respondError(c *gin.Context, err error) {
	if kind, ok := workflow.BillingKindOf(err); ok {
		status := http.StatusConflict
		switch kind {
		case workflow.ErrKindOrderNotFound, workflow.ErrKindItemNotFound, workflow.ErrKindCustomerNotFound:
			status = http.StatusNotFound
		case workflow.ErrKindInvalidAmount:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
		return
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func respondBindingError(c *gin.Context, err error) {
	fields := utils.ProcessValidationErrors(err)
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func requireUser(c *gin.Context) (string, bool) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userId, true
}

// ---- auth ----

func pinLoginHandler(c *gin.Context) {
	var input struct {
		UserId string `json:"user_id" binding:"required"`
		Pin    string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	user, err := models.AuthenticateStaff(c.Request.Context(), input.UserId, input.Pin)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token, err := utils.JwtGenerate(user.ID, user.Name, string(user.BaseRole))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// ---- orders ----

func listOpenOrdersHandler(c *gin.Context) {
	orders, err := models.ListOpenOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func listOrdersHandler(c *gin.Context) {
	orders, err := models.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func createOrderHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	order, err := workflow.CreateOrderUseCase(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func getOrderHandler(c *gin.Context) {
	order, err := models.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func setOrderStatusHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	if err := models.SetOrderStatus(c.Request.Context(), c.Param("id"), input.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func setOrderCustomerHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input struct {
		CustomerId string `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	if err := models.SetOrderCustomer(c.Request.Context(), c.Param("id"), input.CustomerId); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- items ----

func listOrderItemsHandler(c *gin.Context) {
	items, err := models.ListOrderItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func addItemHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input models.NewOrderItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	item, err := workflow.AddItemUseCase(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func sendItemsHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input struct {
		ItemIds []string `json:"item_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	if err := workflow.SendItemsUseCase(c.Request.Context(), c.Param("id"), input.ItemIds); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func setItemStatusHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input struct {
		To models.OrderItemStatus `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	item, err := workflow.SetItemStatusUseCase(c.Request.Context(), c.Param("id"), input.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func listStationItemsHandler(c *gin.Context) {
	station := models.StationRole(c.Param("role"))
	if !station.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid station role"})
		return
	}
	items, err := models.ListStationItems(c.Request.Context(), station)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ---- billing ----

func getInvoiceHandler(c *gin.Context) {
	invoice, err := models.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func applyDiscountHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input struct {
		Discount decimal.Decimal `json:"discount"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	invoice, err := workflow.ApplyDiscountUseCase(c.Request.Context(), c.Param("id"), input.Discount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func listPaymentsHandler(c *gin.Context) {
	payments, err := models.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func addPaymentHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	payment, err := workflow.AddPaymentUseCase(c.Request.Context(), c.Param("id"), input.Amount, userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func splitOrderHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input struct {
		ItemIds []string `json:"item_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	order, err := workflow.SplitOrderUseCase(c.Request.Context(), c.Param("id"), input.ItemIds, userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func postToCreditHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input struct {
		CustomerId string `json:"customer_id" binding:"required"`
		Note       string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	entryId, err := workflow.PostToCreditUseCase(c.Request.Context(), c.Param("id"), input.CustomerId, input.Note, userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entry_id": entryId})
}

// ---- customers & ledger ----

func listCustomersHandler(c *gin.Context) {
	customers, err := models.ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func createCustomerHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventCustomerCreated, userId, map[string]interface{}{
		"customer_id": customer.ID,
		"name":        customer.Name,
		"phone":       customer.Phone,
	})
	c.JSON(http.StatusCreated, customer)
}

func getCustomerHandler(c *gin.Context) {
	customer, err := models.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func listLedgerHandler(c *gin.Context) {
	entries, err := models.ListLedgerByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func getBalanceHandler(c *gin.Context) {
	balance, err := models.GetCustomerBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": c.Param("id"), "balance": balance})
}

func addLedgerChargeHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input models.NewLedgerEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	entry, err := workflow.RecordLedgerChargeUseCase(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func addLedgerPaymentHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input models.NewLedgerEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	entry, err := workflow.RecordLedgerPaymentUseCase(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ---- products ----

func listProductsHandler(c *gin.Context) {
	products, err := models.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func createProductHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventProductCreated, userId, map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	c.JSON(http.StatusCreated, product)
}

func updateProductHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventProductUpdated, userId, map[string]interface{}{
		"product_id": product.ID,
	})
	c.JSON(http.StatusOK, product)
}

func archiveProductHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	if err := models.ArchiveProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventProductArchived, userId, map[string]interface{}{
		"product_id": c.Param("id"),
	})
	c.Status(http.StatusNoContent)
}

// ---- staff ----

func listStaffHandler(c *gin.Context) {
	users, err := models.ListStaff(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func createStaffHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.NewStaff
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	user, err := models.CreateStaff(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventStaffCreated, userId, map[string]interface{}{
		"staff_id": user.ID,
		"name":     user.Name,
	})
	c.JSON(http.StatusCreated, user)
}

func setStaffPinHandler(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var input struct {
		Pin string `json:"pin" binding:"required,min=4"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	if err := models.SetStaffPin(c.Request.Context(), c.Param("id"), input.Pin); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func setStaffActiveHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	if err := models.SetStaffActive(c.Request.Context(), c.Param("id"), *input.IsActive); err != nil {
		respondError(c, err)
		return
	}
	if !*input.IsActive {
		models.AppendEvent(c.Request.Context(), models.EventStaffArchived, userId, map[string]interface{}{
			"staff_id": c.Param("id"),
		})
	}
	c.Status(http.StatusNoContent)
}

// ---- shifts ----

func openShiftHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.NewShift
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	shift, err := models.OpenShift(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventShiftOpened, userId, map[string]interface{}{
		"shift_id": shift.ID,
	})
	c.JSON(http.StatusCreated, shift)
}

func updateShiftHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.NewShift
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	shift, err := models.UpdateOpenShift(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventShiftAssignmentsUpdated, userId, map[string]interface{}{
		"shift_id": shift.ID,
	})
	c.JSON(http.StatusOK, shift)
}

func closeShiftHandler(c *gin.Context) {
	userId, ok := requireUser(c)
	if !ok {
		return
	}
	shift, err := models.CloseShift(c.Request.Context(), userId)
	if err != nil {
		respondError(c, err)
		return
	}
	models.AppendEvent(c.Request.Context(), models.EventShiftClosed, userId, map[string]interface{}{
		"shift_id": shift.ID,
	})
	c.JSON(http.StatusOK, shift)
}

// shiftStateHandler backs the POS poll loop; it is read-only and cheap on
// purpose. The caller's role on the open shift rides along so clients can
// pick their screen without a second request.
func shiftStateHandler(c *gin.Context) {
	shift, err := models.GetOpenShift(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	myRole := ""
	if userId, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
		if role, assigned := shift.ShiftRoleOf(userId); assigned {
			myRole = string(role)
		}
	}
	c.JSON(http.StatusOK, gin.H{"open": shift != nil, "shift": shift, "my_role": myRole})
}

func shiftHistoryHandler(c *gin.Context) {
	shifts, err := models.ListShiftHistory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// ---- events & reports ----

func listEventsHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := models.ListRecentEvents(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func parseReportWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from (want RFC3339)"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to (want RFC3339)"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func shiftSummaryHandler(c *gin.Context) {
	from, to, ok := parseReportWindow(c)
	if !ok {
		return
	}
	summary, err := workflow.BuildShiftSummary(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func shiftSummaryXLSXHandler(c *gin.Context) {
	from, to, ok := parseReportWindow(c)
	if !ok {
		return
	}
	summary, err := workflow.BuildShiftSummary(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	buf, err := workflow.ExportShiftSummaryXLSX(summary)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shift-summary.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// customErrorLogger logs only requests that errored.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
