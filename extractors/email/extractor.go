package email

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
)

// headerOrder is the fixed order recognized headers are prepended to the
// text body in.
var headerOrder = []string{"Subject", "From", "To", "Cc", "Bcc", "Date"}

type Extractor struct {
	log observability.Logger
}

func New(log observability.Logger) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log}
}

func (e *Extractor) SupportedMimeTypes() []string {
	return []string{"message/rfc822", "application/vnd.ms-outlook"}
}

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("parsing email message",
			core.NewErrorContext("email_extract", core.WithCause(err)))
	}

	content := buildBody(env)
	metadata := buildMetadata(env)

	return core.ExtractionResult{
		Content:  content,
		MimeType: "text/plain",
		Metadata: metadata,
	}, nil
}

func (e *Extractor) ExtractPathSync(filePath string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading input file",
			core.NewErrorContext("email_extract", core.WithFile(filePath), core.WithCause(err)))
	}
	return e.ExtractBytesSync(data, mimeType, cfg)
}

func (e *Extractor) ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.AsyncFromSync(ctx, func() (core.ExtractionResult, error) {
		return e.ExtractBytesSync(data, mimeType, cfg)
	})
}

func (e *Extractor) ExtractPathAsync(ctx context.Context, filePath string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.AsyncFromSync(ctx, func() (core.ExtractionResult, error) {
		return e.ExtractPathSync(filePath, mimeType, cfg)
	})
}

// buildBody prepends the recognized headers, in fixed order, to the
// text body. When the message has no plain-text part, the HTML part is
// converted (or, failing that, tag-stripped) in its place.
func buildBody(env *enmime.Envelope) string {
	var b strings.Builder
	for _, header := range headerOrder {
		value := headerValue(env, header)
		if value == "" {
			continue
		}
		b.WriteString(header)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	text := strings.TrimSpace(env.Text)
	if text == "" && env.HTML != "" {
		text = htmlToPlainText(env.HTML)
	}
	b.WriteString(text)
	return strings.TrimSpace(b.String())
}

func headerValue(env *enmime.Envelope, header string) string {
	switch header {
	case "Subject", "Date":
		return env.GetHeader(header)
	default:
		addrs, err := env.AddressList(header)
		if err != nil {
			return ""
		}
		return joinAddresses(addrs)
	}
}

func buildMetadata(env *enmime.Envelope) core.Metadata {
	raw := map[string]any{}

	if subject := env.GetHeader("Subject"); subject != "" {
		raw[core.MetaTitle] = subject
	}
	if from, err := env.AddressList("From"); err == nil {
		if addr, ok := firstAddress(from); ok {
			raw["email_from"] = addr
		}
	}
	if to, err := env.AddressList("To"); err == nil {
		if addr, ok := firstAddress(to); ok {
			raw["email_to"] = addr
		}
	}

	names := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		name := att.FileName
		if name == "" {
			name = "unknown"
		}
		names = append(names, name)
	}
	if len(names) > 0 {
		raw[core.MetaAttachments] = names
	}

	return core.NormalizeMetadata(raw, "email_from", "email_to")
}
