package email

import (
	"strings"
	"testing"

	"github.com/wudi/kreuzberg-go/core"
)

const plainTextMessage = "Subject: Quarterly Update\r\n" +
	"From: \"Ada Lovelace\" <ada@example.com>\r\n" +
	"To: bob@example.com, carol@example.com\r\n" +
	"Date: Mon, 2 Jun 2025 10:00:00 +0000\r\n" +
	"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Here is the quarterly update.\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQK\r\n" +
	"--BOUNDARY--\r\n"

const htmlOnlyMessage = "Subject: Launch Plan\r\n" +
	"From: ada@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>The launch is <strong>on track</strong>.</p></body></html>\r\n"

func TestSupportedMimeTypes(t *testing.T) {
	ext := New(nil)
	mimes := ext.SupportedMimeTypes()
	if len(mimes) == 0 {
		t.Fatal("expected at least one supported mime type")
	}
}

func TestExtractBytesSyncHeadersAndBody(t *testing.T) {
	ext := New(nil)
	result, err := ext.ExtractBytesSync([]byte(plainTextMessage), "message/rfc822", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("ExtractBytesSync() error = %v", err)
	}

	if !strings.Contains(result.Content, "Subject: Quarterly Update") {
		t.Fatalf("expected subject header, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "From: ada@example.com") {
		t.Fatalf("expected from header with bare address, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "To: bob@example.com, carol@example.com") {
		t.Fatalf("expected comma-joined to header, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "Here is the quarterly update.") {
		t.Fatalf("expected plain text body, got %q", result.Content)
	}

	attachments, ok := result.Metadata.Get(core.MetaAttachments)
	if !ok {
		t.Fatal("expected attachments metadata")
	}
	names, ok := attachments.([]string)
	if !ok || len(names) != 1 || names[0] != "report.pdf" {
		t.Fatalf("expected [report.pdf], got %v", attachments)
	}

	emailFrom, ok := result.Metadata.Get("email_from")
	if !ok || emailFrom != "ada@example.com" {
		t.Fatalf("expected email_from ada@example.com, got %v (ok=%v)", emailFrom, ok)
	}
}

func TestExtractBytesSyncFallsBackToHTML(t *testing.T) {
	ext := New(nil)
	result, err := ext.ExtractBytesSync([]byte(htmlOnlyMessage), "message/rfc822", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("ExtractBytesSync() error = %v", err)
	}
	if !strings.Contains(result.Content, "launch is") || !strings.Contains(result.Content, "on track") {
		t.Fatalf("expected converted HTML body text, got %q", result.Content)
	}
	if strings.Contains(result.Content, "<strong>") {
		t.Fatalf("expected HTML tags to be stripped, got %q", result.Content)
	}
}

func TestStripTagsAndUnescape(t *testing.T) {
	got := stripTagsAndUnescape("<p>Tom &amp; Jerry</p>")
	if !strings.Contains(got, "Tom & Jerry") {
		t.Fatalf("stripTagsAndUnescape() = %q", got)
	}
}

func TestExtractBytesSyncInvalidMessageStillParses(t *testing.T) {
	ext := New(nil)
	// enmime is lenient with malformed input; it should not error even on
	// a body with no recognizable headers, just produce an empty header
	// block and whatever body text it finds.
	_, err := ext.ExtractBytesSync([]byte("not a real email"), "message/rfc822", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("expected lenient parsing, got error: %v", err)
	}
}
