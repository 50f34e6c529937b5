package inmemory

import (
	"context"
	"errors"
	"testing"

	orciddomain "inspire-orcid/internal/domain/orcid"
)

func TestRecordStoreGetMissing(t *testing.T) {
	store := NewRecordStore()

	if _, err := store.GetRecord(context.Background(), "1"); !errors.Is(err, orciddomain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordStoreIsolatesCallerMaps(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	data := map[string]interface{}{
		"control_number": "4328",
		"titles":         []interface{}{map[string]interface{}{"title": "Original"}},
	}
	if err := store.SaveRecord(ctx, &orciddomain.Record{Recid: "4328", Data: data}); err != nil {
		t.Fatalf("save: %v", err)
	}
	before, err := orciddomain.Fingerprint(&orciddomain.Record{Recid: "4328", Data: data})
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	data["titles"].([]interface{})[0].(map[string]interface{})["title"] = "Edited"
	data["extra"] = true

	got, err := store.GetRecord(ctx, "4328")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	title := got.Data["titles"].([]interface{})[0].(map[string]interface{})["title"]
	if title != "Original" {
		t.Fatalf("stored record changed without a save: title=%v", title)
	}
	if _, ok := got.Data["extra"]; ok {
		t.Fatalf("stored record gained a key without a save")
	}
	after, _ := orciddomain.Fingerprint(got)
	if after != before {
		t.Fatalf("fingerprint drifted without a save")
	}

	got.Data["control_number"] = "9999"
	again, _ := store.GetRecord(ctx, "4328")
	if again.Data["control_number"] != "4328" {
		t.Fatalf("returned record shares state with the store")
	}
}
