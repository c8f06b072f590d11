package utils

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestFormatRupee(t *testing.T) {
	cases := map[float64]string{
		0:          "₹0",
		999:        "₹999",
		1000:       "₹1,000",
		18000:      "₹18,000",
		123456:     "₹1,23,456",
		12345678.4: "₹1,23,45,678",
		-2500:      "-₹2,500",
	}
	for in, want := range cases {
		if got := FormatRupee(in); got != want {
			t.Fatalf("FormatRupee(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" ₹ 1,500.50 ")
	if err != nil || v != 1500.5 {
		t.Fatalf("ParseAmount = %v, %v", v, err)
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	if _, err := ParseAmount(""); err == nil {
		t.Fatalf("expected error for empty amount")
	}
}

func TestTitleWords(t *testing.T) {
	if got := TitleWords("archaeological site"); got != "Archaeological Site" {
		t.Fatalf("got %q", got)
	}
	if got := TitleWords("atm"); got != "Atm" {
		t.Fatalf("got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if FormatDate(d) != "2025-03-01" {
		t.Fatalf("round trip mismatch: %s", FormatDate(d))
	}
	if _, err := ParseDate("01/03/2025"); err == nil {
		t.Fatalf("expected layout error")
	}
}

func TestClockHMAndFormatDate(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 0, 0, time.UTC)
	if got := ClockHM(ts); got != "07:05" {
		t.Fatalf("ClockHM = %q", got)
	}
	if got := FormatDate(ts); got != "2024-03-09" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func TestLogEventfFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}()

	LogEventf(" ", "trips", "add", "user_id=%d trip_id=%d", 3, 9)
	got := strings.TrimSpace(buf.String())
	want := "[TRIPS] action=add request_id=- msg=user_id=3 trip_id=9"
	if got != want {
		t.Fatalf("log line = %q, want %q", got, want)
	}
}
