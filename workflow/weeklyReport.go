package workflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/utils"
	"github.com/sirupsen/logrus"
)

type MailPublisher interface {
	PublishMail(ctx context.Context, req *models.MailRequest) error
}

type BackupUploader interface {
	UploadBackup(ctx context.Context, objectName string, data []byte) error
}

// ReportGuard runs fn at most once per slot across instances. ran is false when
// another instance holds the slot or already sent it.
type ReportGuard interface {
	Once(ctx context.Context, slot string, fn func(ctx context.Context) error) (ran bool, err error)
}

type PubSubMailer struct{}

func (PubSubMailer) PublishMail(ctx context.Context, req *models.MailRequest) error {
	_, err := config.PublishJSON(ctx, config.EmailTopic(), req)
	return err
}

type GCSBackupUploader struct{}

func (GCSBackupUploader) UploadBackup(ctx context.Context, objectName string, data []byte) error {
	return utils.UploadBytesToGCS(ctx, objectName, data, "application/json")
}

const (
	weeklyReportLockType = "WeeklyReport"
	weeklyReportSentTTL  = 8 * 24 * time.Hour
)

// RedisReportGuard combines a redislock lock with a sent marker key.
type RedisReportGuard struct {
	LockTTL time.Duration
}

func (g RedisReportGuard) Once(ctx context.Context, slot string, fn func(ctx context.Context) error) (bool, error) {
	ttl := g.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	sentKey := weeklyReportLockType + ":sent:" + slot
	ran := false
	err := utils.WithLock(ctx, weeklyReportLockType, slot, ttl, "workflow", "RedisReportGuard.Once", func(ctx context.Context) error {
		if _, sent, err := config.GetRedisValue(sentKey); err != nil {
			return err
		} else if sent {
			return nil
		}
		if err := fn(ctx); err != nil {
			return err
		}
		ran = true
		return config.SetRedisValue(sentKey, time.Now().UTC().Format(time.RFC3339), weeklyReportSentTTL)
	})
	if errors.Is(err, utils.ErrLockNotObtained) {
		return false, nil
	}
	return ran, err
}

// WeeklyReporter emails the weekly summary with a JSON backup attached once the
// configured weekday and hour have passed in the business timezone.
type WeeklyReporter struct {
	Books    *Books
	Mailer   MailPublisher
	Uploader BackupUploader
	Guard    ReportGuard
	Logger   *logrus.Logger
	Interval time.Duration
	Now      func() time.Time
}

func NewWeeklyReporter(books *Books, logger *logrus.Logger) *WeeklyReporter {
	return &WeeklyReporter{
		Books:    books,
		Mailer:   PubSubMailer{},
		Uploader: GCSBackupUploader{},
		Guard:    RedisReportGuard{},
		Logger:   logger,
		Interval: 60 * time.Second,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *WeeklyReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.CheckOnce(ctx); err != nil {
				config.LogError(r.Logger, "workflow", "WeeklyReporter.Run", "send weekly report", nil, err)
			}
		}
	}
}

// reportSlot returns the local date of this week's report when it is due.
func reportSlot(now time.Time, settings models.Settings) (string, bool) {
	loc := settings.Location()
	local := now.In(loc)
	if int(local.Weekday()) != settings.WeeklyReportWeekday || local.Hour() < settings.WeeklyReportHour {
		return "", false
	}
	slot := local.Format("2006-01-02")
	if last := settings.LastWeeklyReportAt; last != nil && last.In(loc).Format("2006-01-02") == slot {
		return "", false
	}
	return slot, true
}

// CheckOnce sends the report if it is due. Returns whether this call sent it.
func (r *WeeklyReporter) CheckOnce(ctx context.Context) (bool, error) {
	now := r.Now()
	settings := r.Books.Settings()
	slot, due := reportSlot(now, settings)
	if !due {
		return false, nil
	}
	recipients := settings.Recipients()
	if len(recipients) == 0 {
		if r.Logger != nil {
			r.Logger.WithFields(logrus.Fields{
				"field": "WeeklyReporter",
				"slot":  slot,
			}).Warn("weekly report due but no recipients configured")
		}
		return false, nil
	}
	return r.Guard.Once(ctx, slot, func(ctx context.Context) error {
		return r.send(ctx, now, slot, settings, recipients)
	})
}

func (r *WeeklyReporter) send(ctx context.Context, now time.Time, slot string, settings models.Settings, recipients []string) error {
	snap := r.Books.Export()
	backup, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	backupName := fmt.Sprintf("backups/roastery-%s.json", slot)

	if r.Uploader != nil {
		// the emailed copy still goes out when the bucket is unavailable
		if err := r.Uploader.UploadBackup(ctx, backupName, backup); err != nil {
			config.LogError(r.Logger, "workflow", "WeeklyReporter.send", "upload backup", backupName, err)
		}
	}

	summary := r.Books.Summary(now.Add(-7*24*time.Hour), now)
	body := RenderWeeklyReport(settings, summary, r.Books.Valuation(), r.Books.LowStock(), r.Books.PartyBalances())
	req := &models.MailRequest{
		To:      recipients,
		Subject: fmt.Sprintf("%s weekly report %s", settings.BusinessName, slot),
		Body:    body,
		Attachments: []models.MailAttachment{{
			Filename:    fmt.Sprintf("roastery-%s.json", slot),
			ContentType: "application/json",
			Base64Data:  base64.StdEncoding.EncodeToString(backup),
		}},
	}
	if err := r.Mailer.PublishMail(ctx, req); err != nil {
		return fmt.Errorf("publish weekly report: %w", err)
	}
	return r.Books.MarkWeeklyReportSent(ctx, now)
}

func RenderWeeklyReport(settings models.Settings, s PeriodSummary, v Valuation, low []models.StockItem, balances []PartyBalanceRow) string {
	loc := settings.Location()
	cur := settings.Currency
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s weekly report\n", settings.BusinessName)
	fmt.Fprintf(&sb, "Period: %s to %s\n\n", s.From.In(loc).Format("2006-01-02"), s.To.In(loc).Format("2006-01-02"))

	sb.WriteString("Activity\n")
	fmt.Fprintf(&sb, "  Purchases: %d, %s %s\n", s.PurchaseCount, s.PurchaseTotal.StringFixed(2), cur)
	fmt.Fprintf(&sb, "  Production runs: %d, %s packs, cost %s %s\n", s.ProductionCount, s.PacksProduced.String(), s.ProductionCost.StringFixed(2), cur)
	fmt.Fprintf(&sb, "  Sales: %d, revenue %s, COGS %s, gross profit %s %s\n", s.SaleCount,
		s.Revenue.StringFixed(2), s.COGS.StringFixed(2), s.GrossProfit.StringFixed(2), cur)
	fmt.Fprintf(&sb, "  Payments received: %s %s\n", s.PaymentsReceived.StringFixed(2), cur)
	fmt.Fprintf(&sb, "  Payments made: %s %s\n\n", s.PaymentsMade.StringFixed(2), cur)

	sb.WriteString("Inventory value\n")
	fmt.Fprintf(&sb, "  Stock items: %s %s\n", v.StockTotal.StringFixed(2), cur)
	fmt.Fprintf(&sb, "  Finished goods: %s %s\n", v.FinishedGoodsTotal.StringFixed(2), cur)
	fmt.Fprintf(&sb, "  Total: %s %s\n\n", v.Total.StringFixed(2), cur)

	if len(low) > 0 {
		sb.WriteString("Low stock\n")
		for _, item := range low {
			fmt.Fprintf(&sb, "  %s: %s %s (reorder at %s)\n", item.Name, item.Quantity.String(), item.Unit, item.ReorderLevel.String())
		}
		sb.WriteString("\n")
	}

	var open []PartyBalanceRow
	for _, b := range balances {
		if !b.Balance.IsZero() {
			open = append(open, b)
		}
	}
	if len(open) > 0 {
		sb.WriteString("Open balances\n")
		for _, b := range open {
			fmt.Fprintf(&sb, "  %s (%s): %s %s\n", b.Name, b.Type, b.Balance.StringFixed(2), cur)
		}
	}
	return sb.String()
}
