package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/foxxcyber/pex/internal/inventory"
)

const importCSV = "codigo,lote,produto,quantidade,validade\n" +
	"789,L1,Dipirona,10,27/10/2026\n" +
	"790,,,5,2026-12-01\n" +
	"791,,Gaze,2,sem data\n" +
	"792,,Soro,x,2026-11-30\n"

func TestImportCSV(t *testing.T) {
	store := digestStore(t, nil)

	summary, err := ImportCSV(context.Background(), store, strings.NewReader(importCSV), false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Rows != 4 || summary.Imported != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Failures) != 2 || summary.Failures[0].Line != 3 || summary.Failures[1].Line != 4 {
		t.Errorf("failures = %+v", summary.Failures)
	}
	if store.Len() != 2 {
		t.Errorf("store has %d products", store.Len())
	}
}

func TestImportCSVDryRun(t *testing.T) {
	store := digestStore(t, nil)

	summary, err := ImportCSV(context.Background(), store, strings.NewReader(importCSV), true)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.DryRun || summary.Imported != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if store.Len() != 0 {
		t.Errorf("dry run stored %d products", store.Len())
	}
}

func TestImportCSVWritesOnce(t *testing.T) {
	kv := &memoryKV{data: map[string][]byte{}}
	store := inventory.NewStore(kv, inventory.WithClock(func() time.Time { return digestNow }))

	var b strings.Builder
	b.WriteString("codigo,lote,produto,quantidade,validade\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "%d,L%d,Produto %d,%d,%s\n", 7890+i, i, i, i%7, digestNow.AddDate(0, 0, i%90-20).Format("02/01/2006"))
	}
	b.WriteString("9999,,,1,2026-12-01\n")

	summary, err := ImportCSV(context.Background(), store, strings.NewReader(b.String()), false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Rows != 201 || summary.Imported != 200 || len(summary.Failures) != 1 || summary.Failures[0].Line != 202 {
		t.Errorf("summary = rows %d imported %d failures %+v", summary.Rows, summary.Imported, summary.Failures)
	}
	if kv.writes != 1 {
		t.Errorf("writes = %d, want 1", kv.writes)
	}
	if store.Len() != 200 {
		t.Errorf("store has %d products", store.Len())
	}
}
