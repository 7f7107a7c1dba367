package postgres

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/infra/storage/postgres/migrations"
)

func TestTxRow_RoundTrip(t *testing.T) {
	fetched := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tx := &domain.Transaction{
		ID:          "tx1",
		ChainID:     domain.ChainIDArweave,
		Format:      2,
		Owner:       "owner",
		Quantity:    "",
		Reward:      "124145681",
		DataSize:    1033478,
		Tags:        []domain.Tag{{Name: "Content-Type", Value: "text/html"}, {Name: "App-Name", Value: "ArDrive"}},
		BlockHeight: 1045123,
		BlockHash:   "blockhash",
		Status:      domain.TxStatusConfirmed,
		FetchedAt:   fetched,
		RawData:     []byte(`{"id":"tx1"}`),
	}

	row := fromDomain(tx)
	if row.Quantity != "0" {
		t.Errorf("empty quantity should be stored as 0, got %q", row.Quantity)
	}
	if !row.BlockHeight.Valid || row.BlockHeight.Int64 != 1045123 {
		t.Errorf("block height not set: %+v", row.BlockHeight)
	}
	if len(row.TagNames) != 2 || row.TagValues[1] != "ArDrive" {
		t.Errorf("tags not split: %v %v", row.TagNames, row.TagValues)
	}

	got := row.toDomain()
	if got.ID != "tx1" || got.DataSize != 1033478 || got.Status != domain.TxStatusConfirmed {
		t.Errorf("unexpected round trip: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0].Name != "Content-Type" || got.Tags[1].Value != "ArDrive" {
		t.Errorf("tags not rebuilt: %+v", got.Tags)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Errorf("fetched_at changed: %v", got.FetchedAt)
	}
}

func TestFromDomain_PendingTx(t *testing.T) {
	row := fromDomain(&domain.Transaction{ID: "tx2", ChainID: "arweave", Status: domain.TxStatusPending})
	if row.BlockHeight.Valid || row.BlockHash.Valid {
		t.Error("pending tx should have null block columns")
	}
	if row.RawData != nil {
		t.Error("empty raw data should be stored as null")
	}
	if row.FetchedAt.IsZero() {
		t.Error("fetched_at should default to now")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, e := range entries {
		body, err := fs.ReadFile(migrations.FS, e.Name())
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(body), "-- +goose Up") {
			t.Errorf("%s is missing a goose Up annotation", e.Name())
		}
	}
}
