package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/middlewares"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/models/reports"
	"github.com/mmdatafocus/roastery_backend/utils"
	"github.com/mmdatafocus/roastery_backend/workflow"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Handlers exposes the books over HTTP. Every engine call runs in its own span.
type Handlers struct {
	Books    *workflow.Books
	DB       *gorm.DB
	Tracer   trace.Tracer
	Logger   *logrus.Logger
	Uploader workflow.BackupUploader

	Login     func(ctx context.Context, username string, password string) (*models.LoginInfo, error)
	Logout    func(ctx context.Context, token string) error
	IsRevoked middlewares.TokenRevokedFunc
}

func NewHandlers(books *workflow.Books, db *gorm.DB, logger *logrus.Logger) *Handlers {
	return &Handlers{
		Books:     books,
		DB:        db,
		Tracer:    tracer,
		Logger:    logger,
		Uploader:  workflow.GCSBackupUploader{},
		Login:     models.Login,
		Logout:    models.Logout,
		IsRevoked: models.IsTokenRevoked,
	}
}

func (h *Handlers) Register(r gin.IRouter) {
	r.POST("/login", h.login)

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(h.IsRevoked))
	api.POST("/logout", h.logout)

	api.GET("/settings", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Settings()) })
	api.PUT("/settings", createHandler(h, "UpdateSettings", http.StatusOK, h.Books.UpdateSettings))

	api.GET("/stock-items", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.StockItems()) })
	api.POST("/stock-items", createHandler(h, "CreateStockItem", http.StatusCreated, h.Books.CreateStockItem))
	api.GET("/stock-items/:id", getHandler(h.Books.StockItem))
	api.PUT("/stock-items/:id", idHandler(h, "UpdateStockItem", http.StatusOK, h.Books.UpdateStockItem))
	api.GET("/stock-items/:id/on-hand", h.onHand)

	api.GET("/parties", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Parties()) })
	api.POST("/parties", createHandler(h, "CreateParty", http.StatusCreated, h.Books.CreateParty))
	api.GET("/parties/:id", getHandler(h.Books.Party))
	api.PUT("/parties/:id", idHandler(h, "UpdateParty", http.StatusOK, h.Books.UpdateParty))
	api.GET("/parties/:id/balance", h.partyBalance)
	api.GET("/parties/:id/ledger", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.LedgerEntries(c.Param("id"))) })

	api.GET("/recipes", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Recipes()) })
	api.POST("/recipes", createHandler(h, "CreateRecipe", http.StatusCreated, h.Books.CreateRecipe))
	api.PUT("/recipes/:id", idHandler(h, "UpdateRecipe", http.StatusOK, h.Books.UpdateRecipe))

	api.GET("/purchases", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Purchases()) })
	api.POST("/purchases", createHandler(h, "RecordPurchase", http.StatusCreated, h.Books.RecordPurchase))
	api.POST("/purchases/:id/void", voidHandler(h, "VoidPurchase", h.Books.VoidPurchase))

	api.GET("/productions", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Productions()) })
	api.POST("/productions", createHandler(h, "RecordProduction", http.StatusCreated, h.Books.RecordProduction))
	api.POST("/productions/:id/void", voidHandler(h, "VoidProduction", h.Books.VoidProduction))

	api.GET("/orders", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Orders()) })
	api.POST("/orders", createHandler(h, "CreateOrder", http.StatusCreated, h.Books.CreateOrder))
	api.GET("/orders/:id", getHandler(h.Books.Order))
	api.POST("/orders/:id/ship", idHandler(h, "ShipOrder", http.StatusCreated, h.Books.ShipOrder))
	api.POST("/orders/:id/void", voidHandler(h, "VoidOrder", h.Books.VoidOrder))

	api.GET("/sales", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Sales()) })
	api.POST("/sales/:id/void", voidHandler(h, "VoidSale", h.Books.VoidSale))

	api.GET("/payments", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Payments()) })
	api.POST("/payments", createHandler(h, "RecordPayment", http.StatusCreated, h.Books.RecordPayment))
	api.POST("/payments/:id/void", voidHandler(h, "VoidPayment", h.Books.VoidPayment))

	api.GET("/adjustments", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Adjustments()) })
	api.POST("/adjustments", createHandler(h, "RecordAdjustment", http.StatusCreated, h.Books.RecordAdjustment))
	api.POST("/adjustments/:id/void", voidHandler(h, "VoidAdjustment", h.Books.VoidAdjustment))

	api.GET("/movements", h.movements)
	api.POST("/movements/void-source", h.voidSource("VoidInventoryMovementsBySource", h.Books.VoidInventoryMovementsBySource))
	api.GET("/ledger", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.LedgerEntries(c.Query("party_id"))) })
	api.POST("/ledger/void-source", h.voidSource("VoidLedgerEntriesBySource", h.Books.VoidLedgerEntriesBySource))

	rep := api.Group("/reports")
	rep.GET("/finished-goods", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.FinishedGoods()) })
	rep.GET("/balances", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.PartyBalances()) })
	rep.GET("/low-stock", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.LowStock()) })
	rep.GET("/valuation", func(c *gin.Context) { c.JSON(http.StatusOK, h.Books.Valuation()) })
	rep.GET("/verify-stock", h.verifyStock)
	rep.GET("/summary", h.summary)
	rep.GET("/valuation.xlsx", h.excel("valuation.xlsx", func(c *gin.Context) (*excelize.File, error) {
		return reports.ValuationWorkbook(h.Books.Valuation())
	}))
	rep.GET("/balances.xlsx", h.excel("balances.xlsx", func(c *gin.Context) (*excelize.File, error) {
		return reports.PartyBalancesWorkbook(h.Books.PartyBalances())
	}))
	rep.GET("/movements.xlsx", h.excel("movements.xlsx", func(c *gin.Context) (*excelize.File, error) {
		filter, err := movementFilter(c)
		if err != nil {
			return nil, err
		}
		return reports.MovementsWorkbook(h.Books.Movements(filter), h.itemNames())
	}))

	api.GET("/export", h.export)
	api.POST("/import", h.importSnapshot)
	api.POST("/backup", h.backup)

	api.POST("/internal/ops/outbox/replay", h.outboxReplay)
}

func (h *Handlers) start(c *gin.Context, name string) (context.Context, trace.Span) {
	return h.Tracer.Start(c.Request.Context(), name)
}

// fail maps engine errors to status codes. Unexpected errors are logged and
// hidden from the caller.
func (h *Handlers) fail(c *gin.Context, span trace.Span, funcName string, err error) {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		config.LogError(h.Logger, "server.go", funcName, c.Request.URL.Path, nil, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidRecipe),
		errors.Is(err, models.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidLogin):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyVoided),
		errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

func createHandler[In any, Out any](h *Handlers, name string, status int, fn func(context.Context, *In) (Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input In
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		ctx, span := h.start(c, name)
		defer span.End()
		out, err := fn(ctx, &input)
		if err != nil {
			h.fail(c, span, name, err)
			return
		}
		c.JSON(status, out)
	}
}

func idHandler[In any, Out any](h *Handlers, name string, status int, fn func(context.Context, string, *In) (Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input In
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		ctx, span := h.start(c, name)
		defer span.End()
		out, err := fn(ctx, c.Param("id"), &input)
		if err != nil {
			h.fail(c, span, name, err)
			return
		}
		c.JSON(status, out)
	}
}

func voidHandler[Out any](h *Handlers, name string, fn func(context.Context, string, string) (Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.VoidRequest
		// the body is optional
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				badRequest(c, err)
				return
			}
		}
		if err := utils.ValidateStruct(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		ctx, span := h.start(c, name)
		defer span.End()
		out, err := fn(ctx, c.Param("id"), input.Reason)
		if err != nil {
			h.fail(c, span, name, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func getHandler[Out any](fn func(string) (Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := fn(c.Param("id"))
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, span := h.start(c, "Login")
	defer span.End()
	info, err := h.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.fail(c, span, "Login", err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handlers) logout(c *gin.Context) {
	token, _ := utils.GetTokenFromContext(c.Request.Context())
	if err := h.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, nil, "Logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) onHand(c *gin.Context) {
	qty, err := h.Books.OnHand(c.Param("id"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock_item_id": c.Param("id"), "on_hand": qty})
}

func (h *Handlers) partyBalance(c *gin.Context) {
	balance, err := h.Books.PartyBalance(c.Param("id"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"party_id": c.Param("id"), "balance": balance})
}

// parseTimeParam accepts RFC3339 or a plain date.
func parseTimeParam(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", models.ErrValidation, key)
	}
	return &t, nil
}

func movementFilter(c *gin.Context) (workflow.MovementFilter, error) {
	from, err := parseTimeParam(c, "from")
	if err != nil {
		return workflow.MovementFilter{}, err
	}
	to, err := parseTimeParam(c, "to")
	if err != nil {
		return workflow.MovementFilter{}, err
	}
	return workflow.MovementFilter{
		ItemId:     c.Query("item_id"),
		SourceType: models.SourceType(c.Query("source_type")),
		SourceId:   c.Query("source_id"),
		From:       from,
		To:         to,
	}, nil
}

func (h *Handlers) movements(c *gin.Context) {
	filter, err := movementFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Books.Movements(filter))
}

type voidSourceRequest struct {
	SourceType models.SourceType `json:"source_type" binding:"required"`
	SourceId   string            `json:"source_id" binding:"required"`
}

func (h *Handlers) voidSource(name string, fn func(context.Context, models.SourceType, string) (int, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req voidSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ctx, span := h.start(c, name)
		defer span.End()
		n, err := fn(ctx, req.SourceType, req.SourceId)
		if err != nil {
			h.fail(c, span, name, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"voided": n})
	}
}

func (h *Handlers) verifyStock(c *gin.Context) {
	drift := h.Books.VerifyStock()
	c.JSON(http.StatusOK, gin.H{"ok": len(drift) == 0, "drift": drift})
}

func (h *Handlers) summary(c *gin.Context) {
	from, err := parseTimeParam(c, "from")
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseTimeParam(c, "to")
	if err != nil {
		badRequest(c, err)
		return
	}
	end := h.Books.Now()
	if to != nil {
		end = *to
	}
	start := end.Add(-7 * 24 * time.Hour)
	if from != nil {
		start = *from
	}
	c.JSON(http.StatusOK, h.Books.Summary(start, end))
}

func (h *Handlers) itemNames() map[string]string {
	names := make(map[string]string)
	for _, item := range h.Books.StockItems() {
		names[item.ID] = item.Name
	}
	return names
}

func (h *Handlers) excel(filename string, build func(c *gin.Context) (*excelize.File, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := build(c)
		if err != nil {
			h.fail(c, nil, "excel", err)
			return
		}
		c.Header("Content-Type", reports.ExcelContentType)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := reports.Write(c.Writer, f); err != nil {
			config.LogError(h.Logger, "server.go", "excel", filename, nil, err)
		}
	}
}

func (h *Handlers) export(c *gin.Context) {
	snap := h.Books.Export()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "roastery-"+snap.ExportedAt.Format("20060102-150405")+".json"))
	c.JSON(http.StatusOK, snap)
}

func (h *Handlers) importSnapshot(c *gin.Context) {
	var snap models.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		badRequest(c, err)
		return
	}
	ctx, span := h.start(c, "Import")
	defer span.End()
	if err := h.Books.Import(ctx, &snap); err != nil {
		h.fail(c, span, "Import", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stock_items":    len(snap.StockItems),
		"parties":        len(snap.Parties),
		"movements":      len(snap.Movements),
		"ledger_entries": len(snap.LedgerEntries),
	})
}

func (h *Handlers) backup(c *gin.Context) {
	ctx, span := h.start(c, "Backup")
	defer span.End()
	snap := h.Books.Export()
	data, err := json.Marshal(snap)
	if err != nil {
		h.fail(c, span, "Backup", err)
		return
	}
	objectName := fmt.Sprintf("backups/roastery-manual-%s.json", snap.ExportedAt.Format("20060102-150405"))
	if err := h.Uploader.UploadBackup(ctx, objectName, data); err != nil {
		h.fail(c, span, "Backup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"object": objectName, "bytes": len(data)})
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id"`
}

func (h *Handlers) outboxReplay(c *gin.Context) {
	var req outboxReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.RecordId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record_id is required"})
		return
	}
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db is nil"})
		return
	}
	rec, err := workflow.ReplayOutboxRecord(c.Request.Context(), h.DB, req.RecordId)
	if err != nil {
		h.fail(c, nil, "outboxReplay", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record_id":       rec.ID,
		"publish_status":  rec.PublishStatus,
		"next_attempt_at": rec.NextAttemptAt.Format(time.RFC3339Nano),
	})
}
