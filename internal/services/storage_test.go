package services

import (
	"testing"
	"time"
)

func TestReportKey(t *testing.T) {
	at := time.Date(2026, time.March, 5, 14, 7, 9, 0, time.UTC)

	got := ReportKey("pex-relatorio-2026-03-05.pdf", at)
	want := "reports/2026/03/140709-pex-relatorio-2026-03-05.pdf"
	if got != want {
		t.Errorf("ReportKey = %q, want %q", got, want)
	}
}

func TestNewStorageServiceDoesNotDial(t *testing.T) {
	s, err := NewStorageService("localhost:9000", "key", "secret", "pex-reports", "us-east-1", false)
	if err != nil {
		t.Fatalf("NewStorageService: %v", err)
	}
	if s.bucketName != "pex-reports" {
		t.Errorf("bucket = %q", s.bucketName)
	}
}
