package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cre-mailflow/api/internal/domain"
	"github.com/cre-mailflow/api/internal/repositories"
)

func TestToRecordMapsOptionalColumns(t *testing.T) {
	city := "Austin"
	sqft := 5000
	draft := domain.CampaignDraft{
		ID:                  "01J0000000000000000000000A",
		CreatedAt:           time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		TargetCity:          &city,
		MinSqFt:             &sqft,
		MailerFormat:        "B. 6x9 Postcard",
		Quantity:            250,
		SelectedDesignStyle: domain.DesignStyleBold,
		SelectedDesign:      json.RawMessage(`{"id":"d1"}`),
	}

	record := toRecord(draft)
	if record.TargetCity == nil || *record.TargetCity != "Austin" || record.MinSqFt == nil || *record.MinSqFt != 5000 {
		t.Fatalf("unexpected optional columns %+v", record)
	}
	if record.CompanyName != nil || record.MinYearsOwned != nil {
		t.Fatalf("expected absent fields to stay NULL, got %+v", record)
	}
	if record.SelectedDesignStyle == nil || *record.SelectedDesignStyle != "bold" {
		t.Fatalf("unexpected style %v", record.SelectedDesignStyle)
	}
	if record.SelectedDesign == nil || *record.SelectedDesign != `{"id":"d1"}` {
		t.Fatalf("unexpected design %v", record.SelectedDesign)
	}
	if (campaignRecord{}).TableName() != "campaigns" {
		t.Fatal("unexpected table name")
	}

	empty := toRecord(domain.CampaignDraft{MailerFormat: "A. Letter Mailer", Quantity: 100})
	if empty.SelectedDesign != nil || empty.SelectedDesignStyle != nil {
		t.Fatalf("expected nil design columns, got %+v", empty)
	}
}

func TestWrapErrorClassification(t *testing.T) {
	var repoErr repositories.RepositoryError

	err := wrapError("campaigns.insert", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
	if !errors.As(err, &repoErr) || !repoErr.IsConflict() || repoErr.IsUnavailable() {
		t.Fatalf("expected conflict classification, got %v", err)
	}

	err = wrapError("campaigns.insert", errors.New("dial tcp: connection refused"))
	if !errors.As(err, &repoErr) || !repoErr.IsUnavailable() {
		t.Fatalf("expected unavailable classification, got %v", err)
	}
}
