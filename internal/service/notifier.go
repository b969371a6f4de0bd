package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"datafill/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Notifier: operator-facing messages
// ─────────────────────────────────────────────────────────────
//
// Reports are advisory text only; nothing downstream inspects them.

const (
	msgNonArray    = "warn.non_array"
	msgEmptyObject = "warn.empty_object"
	msgUnknownMark = "warn.unknown_mark"
	msgImported    = "ok.imported"
	msgCommitted   = "ok.committed"
	msgParseError  = "err.parse"
	msgCommitError = "err.commit"
)

var supportedLocales = []language.Tag{language.English, language.Vietnamese}

var messages = map[language.Tag]map[string]string{
	language.English: {
		msgNonArray:    "The input data is not an array; it was wrapped into one.",
		msgEmptyObject: "Some empty objects were found and have been removed.",
		msgUnknownMark: "Unknown mark (%s); the value was left unmasked.",
		msgImported:    "Data imported successfully! %d record(s).",
		msgCommitted:   "Filled %d element(s).",
		msgParseError:  "The file could not be loaded. The file seems to have syntax errors.",
		msgCommitError: "Filling stopped: %s",
	},
	language.Vietnamese: {
		msgNonArray:    "Dữ liệu đầu vào không hợp lệ. Vui lòng nhập dữ liệu vào một mảng.",
		msgEmptyObject: "Phát hiện ra một số đối tượng trống rỗng và đã bị loại bỏ.",
		msgUnknownMark: "Không rõ kiểu che (%s); giá trị được giữ nguyên.",
		msgImported:    "Nhập dữ liệu thành công! %d bản ghi.",
		msgCommitted:   "Đã điền %d phần tử.",
		msgParseError:  "Không thể tải tệp. Tệp có vẻ bị lỗi cú pháp.",
		msgCommitError: "Dừng điền dữ liệu: %s",
	},
}

// Notifier renders reports in the operator's locale and emits them.
type Notifier struct {
	emitter EventEmitter
	printer *message.Printer
}

// NewNotifier builds a notifier for locale, either a BCP 47 tag ("vi",
// "en-US") or a POSIX locale ("vi_VN.UTF-8"). Unknown or empty locales fall
// back to English.
func NewNotifier(emitter EventEmitter, locale string) (*Notifier, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s/%s: %w", tag, key, err)
			}
		}
	}

	tag := language.English
	locale, _, _ = strings.Cut(locale, ".")
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale != "" && locale != "C" && locale != "POSIX" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, _ := language.NewMatcher(supportedLocales).Match(parsed)
			tag = supportedLocales[idx]
		}
	}
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Notifier{emitter: emitter, printer: message.NewPrinter(tag, message.Catalog(b))}, nil
}

// Report surfaces an import/transform warning.
func (n *Notifier) Report(ctx context.Context, w etl.Warning) {
	var text string
	switch w.Kind {
	case etl.WarnNonArray:
		text = n.printer.Sprintf(msgNonArray)
	case etl.WarnEmptyObject:
		text = n.printer.Sprintf(msgEmptyObject)
	case etl.WarnUnknownMark:
		text = n.printer.Sprintf(msgUnknownMark, w.Detail)
	default:
		text = string(w.Kind)
	}
	n.emitter.Emit(ctx, EventWarning, Notice{Kind: string(w.Kind), Message: text})
}

// Imported announces an accepted import.
func (n *Notifier) Imported(ctx context.Context, records int) {
	n.emitter.Emit(ctx, EventSuccess, Notice{Kind: "IMPORTED", Message: n.printer.Sprintf(msgImported, records)})
}

// NotifySuccess announces a completed commit.
func (n *Notifier) NotifySuccess(ctx context.Context, bound int) {
	n.emitter.Emit(ctx, EventSuccess, Notice{Kind: "COMMITTED", Message: n.printer.Sprintf(msgCommitted, bound)})
}

// ParseFailed reports a blocking import error.
func (n *Notifier) ParseFailed(ctx context.Context) {
	n.emitter.Emit(ctx, EventError, Notice{Kind: "PARSE_ERROR", Message: n.printer.Sprintf(msgParseError)})
}

// CommitFailed reports a commit aborted partway.
func (n *Notifier) CommitFailed(ctx context.Context, err error) {
	n.emitter.Emit(ctx, EventError, Notice{Kind: "COMMIT_ERROR", Message: n.printer.Sprintf(msgCommitError, err.Error())})
}
