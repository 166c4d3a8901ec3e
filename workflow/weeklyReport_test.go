package workflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/sirupsen/logrus"
)

type fakeMailer struct {
	sent []*models.MailRequest
	err  error
}

func (m *fakeMailer) PublishMail(ctx context.Context, req *models.MailRequest) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, req)
	return nil
}

type fakeUploader struct {
	objects map[string][]byte
}

func (u *fakeUploader) UploadBackup(ctx context.Context, objectName string, data []byte) error {
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[objectName] = data
	return nil
}

// memoryGuard mimics the redis guard for a single process.
type memoryGuard struct {
	sent map[string]bool
}

func (g *memoryGuard) Once(ctx context.Context, slot string, fn func(ctx context.Context) error) (bool, error) {
	if g.sent == nil {
		g.sent = make(map[string]bool)
	}
	if g.sent[slot] {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		return false, err
	}
	g.sent[slot] = true
	return true, nil
}

func TestReportSlot(t *testing.T) {
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	settings.WeeklyReportWeekday = int(time.Monday)
	settings.WeeklyReportHour = 8

	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	sentEarlier := monday.Add(8*time.Hour + 30*time.Minute)
	lastWeek := monday.Add(-7 * 24 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		last *time.Time
		want bool
	}{
		{"before the hour", monday.Add(7 * time.Hour), nil, false},
		{"at the hour", monday.Add(8 * time.Hour), nil, true},
		{"later that day", monday.Add(20 * time.Hour), &lastWeek, true},
		{"already sent today", monday.Add(9 * time.Hour), &sentEarlier, false},
		{"other weekday", monday.Add(32 * time.Hour), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings
			s.LastWeeklyReportAt = tt.last
			slot, due := reportSlot(tt.now, s)
			if due != tt.want {
				t.Fatalf("due = %v, want %v", due, tt.want)
			}
			if due && slot != "2024-03-04" {
				t.Fatalf("slot = %q", slot)
			}
		})
	}
}

func TestReportSlot_UsesBusinessTimezone(t *testing.T) {
	settings := models.DefaultSettings()
	settings.Timezone = "Asia/Yangon"
	settings.WeeklyReportWeekday = int(time.Monday)
	settings.WeeklyReportHour = 8

	// 02:00 UTC Monday is 08:30 in Yangon
	slot, due := reportSlot(time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC), settings)
	if !due || slot != "2024-03-04" {
		t.Fatalf("expected due for 2024-03-04, got %q %v", slot, due)
	}
}

func newTestReporter(t *testing.T) (*WeeklyReporter, *fakeMailer, *fakeUploader) {
	t.Helper()
	b, _ := newTestBooks(t)
	if _, err := b.UpdateSettings(context.Background(), &models.UpdateSettings{
		BusinessName:        "Hilltop Roasters",
		Currency:            "MMK",
		Timezone:            "UTC",
		WeeklyReportWeekday: int(time.Monday),
		WeeklyReportHour:    8,
		ReportRecipients:    "owner@example.com, books@example.com",
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	mailer := &fakeMailer{}
	uploader := &fakeUploader{}
	r := &WeeklyReporter{
		Books:    b,
		Mailer:   mailer,
		Uploader: uploader,
		Guard:    &memoryGuard{},
		Logger:   logrus.New(),
		Interval: time.Minute,
		Now:      func() time.Time { return time.Date(2024, 3, 4, 8, 5, 0, 0, time.UTC) },
	}
	return r, mailer, uploader
}

func TestWeeklyReporter_SendsOncePerWeek(t *testing.T) {
	r, mailer, uploader := newTestReporter(t)
	ctx := context.Background()
	item := mustStockItem(t, r.Books, models.StockItemKindGreenCoffee, "Guji")
	mustPurchase(t, r.Books, item.ID, nil, "10", "100")

	sent, err := r.CheckOnce(ctx)
	if err != nil || !sent {
		t.Fatalf("expected report sent, got sent=%v err=%v", sent, err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if len(mail.To) != 2 || mail.To[1] != "books@example.com" {
		t.Fatalf("unexpected recipients: %v", mail.To)
	}
	if !strings.Contains(mail.Body, "Purchases: 1, 100.00 MMK") {
		t.Fatalf("report body missing purchases:\n%s", mail.Body)
	}
	if len(mail.Attachments) != 1 {
		t.Fatalf("expected backup attachment, got %d", len(mail.Attachments))
	}
	raw, err := base64.StdEncoding.DecodeString(mail.Attachments[0].Base64Data)
	if err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("attachment is not a snapshot: %v", err)
	}
	if len(snap.StockItems) != 1 || len(snap.Movements) != 1 {
		t.Fatalf("unexpected snapshot contents: %d items, %d movements", len(snap.StockItems), len(snap.Movements))
	}
	if _, ok := uploader.objects["backups/roastery-2024-03-04.json"]; !ok {
		t.Fatalf("backup not uploaded: %v", uploader.objects)
	}
	if last := r.Books.Settings().LastWeeklyReportAt; last == nil {
		t.Fatal("last weekly report time not recorded")
	}

	sent, err = r.CheckOnce(ctx)
	if err != nil || sent {
		t.Fatalf("expected no second report, got sent=%v err=%v", sent, err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected still 1 mail, got %d", len(mailer.sent))
	}
}

func TestWeeklyReporter_PublishFailureIsRetried(t *testing.T) {
	r, mailer, _ := newTestReporter(t)
	mailer.err = errors.New("pubsub unavailable")

	if _, err := r.CheckOnce(context.Background()); err == nil {
		t.Fatal("expected publish error")
	}
	if r.Books.Settings().LastWeeklyReportAt != nil {
		t.Fatal("failed report must not be marked sent")
	}

	mailer.err = nil
	if sent, err := r.CheckOnce(context.Background()); err != nil || !sent {
		t.Fatalf("expected retry to send, got sent=%v err=%v", sent, err)
	}
}

func TestWeeklyReporter_NoRecipients(t *testing.T) {
	r, mailer, _ := newTestReporter(t)
	if _, err := r.Books.UpdateSettings(context.Background(), &models.UpdateSettings{
		BusinessName:        "Hilltop Roasters",
		Currency:            "MMK",
		Timezone:            "UTC",
		WeeklyReportWeekday: int(time.Monday),
		WeeklyReportHour:    8,
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if sent, err := r.CheckOnce(context.Background()); err != nil || sent {
		t.Fatalf("expected nothing sent, got sent=%v err=%v", sent, err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail, got %d", len(mailer.sent))
	}
}
