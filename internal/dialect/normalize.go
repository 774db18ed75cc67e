package dialect

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"chatvault/internal/conversation"
)

// Layouts tried for timestamps that carry a zone designator.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
}

// Layouts tried for timestamps without a zone; they are read in Options.Location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// field returns the value of the first key that is present, non-null and not blank.
func field(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func stringField(obj map[string]any, keys ...string) string {
	v, ok := field(obj, keys...)
	if !ok {
		return ""
	}
	return stringify(v)
}

// stringify renders a decoded JSON value as text.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// optionalTime is a timestamp that may be absent from the export.
type optionalTime struct {
	t  time.Time
	ok bool
}

// timeField parses the first present candidate key as a timestamp.
func (o Options) timeField(obj map[string]any, keys ...string) (optionalTime, error) {
	for _, k := range keys {
		v, present := field(obj, k)
		if !present {
			continue
		}
		t, err := o.parseTime(v)
		if err != nil {
			return optionalTime{}, malformed("field %q: %v", k, err)
		}
		return optionalTime{t: t, ok: true}, nil
	}
	return optionalTime{}, nil
}

// parseTime accepts epoch seconds (integer or fractional) and ISO-8601 text.
func (o Options) parseTime(v any) (time.Time, error) {
	if s, ok := v.(string); ok {
		text := strings.TrimSpace(s)
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t.UTC(), nil
			}
		}
		for _, layout := range naiveLayouts {
			if t, err := time.ParseInLocation(layout, text, o.Location); err == nil {
				return t.UTC(), nil
			}
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return epoch(f), nil
		}
		return time.Time{}, fmt.Errorf("unable to parse datetime value %q", s)
	}
	if f, ok := toFloat(v); ok {
		return epoch(f), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime value of type %T", v)
}

func epoch(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
}

// resolveRole lower-cases a vendor role and maps it onto the canonical names.
// Objects such as {"role": "user"} are resolved through their role key.
func resolveRole(v any, remap map[string]string) string {
	if obj, ok := v.(map[string]any); ok {
		v, _ = field(obj, "role", "name")
	}
	role := strings.ToLower(strings.TrimSpace(stringify(v)))
	if role == "" {
		return conversation.RoleUser
	}
	if mapped, ok := remap[role]; ok {
		return mapped
	}
	return role
}

// resolveContent flattens structured message content into text.
func resolveContent(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		return joinParts(x)
	case map[string]any:
		if parts, ok := x["parts"].([]any); ok {
			return joinParts(parts)
		}
		if text, ok := x["text"]; ok {
			return resolveContent(text)
		}
		if content, ok := x["content"]; ok {
			return resolveContent(content)
		}
		return stringify(x)
	default:
		return stringify(x)
	}
}

func joinParts(parts []any) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		var text string
		if obj, ok := part.(map[string]any); ok {
			if t, ok := obj["text"]; ok {
				text = stringify(t)
			} else {
				text = stringify(obj)
			}
		} else {
			text = stringify(part)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n")
}

// contentType reads a message's content type, falling back to its content object.
func contentType(msg map[string]any) string {
	if ct := stringField(msg, "content_type"); ct != "" {
		return ct
	}
	if content, ok := msg["content"].(map[string]any); ok {
		if ct := stringField(content, "content_type"); ct != "" {
			return ct
		}
	}
	return conversation.DefaultContentType
}

// decodeBlob turns an attachment payload into bytes. Text is tried as strict
// base64 first and kept as raw UTF-8 when it does not decode.
func decodeBlob(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return []byte{}, nil
	case []byte:
		return x, nil
	case string:
		candidate := strings.TrimSpace(x)
		if candidate == "" {
			return []byte{}, nil
		}
		if decoded, err := base64.StdEncoding.Strict().DecodeString(candidate); err == nil {
			return decoded, nil
		}
		return []byte(x), nil
	case []any:
		out := make([]byte, len(x))
		for i, item := range x {
			f, ok := toFloat(item)
			if !ok || f < 0 || f > 255 || f != math.Trunc(f) {
				return nil, fmt.Errorf("byte array element %d is not an octet", i)
			}
			out[i] = byte(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attachment payload type %T", v)
	}
}

// attachmentKeys lists the candidate keys one dialect uses for attachment fields.
type attachmentKeys struct {
	filename     []string
	filenameLast []string // consulted after filename but kept in metadata
	mimeType     []string
	extracted    []string
	payload      []string
}

func (k attachmentKeys) reserved() map[string]struct{} {
	out := make(map[string]struct{})
	for _, list := range [][]string{k.filename, k.mimeType, k.extracted, k.payload} {
		for _, key := range list {
			out[key] = struct{}{}
		}
	}
	return out
}

func (k attachmentKeys) parse(obj map[string]any) (conversation.Attachment, error) {
	filename := stringField(obj, k.filename...)
	if filename == "" {
		filename = stringField(obj, k.filenameLast...)
	}
	if filename == "" {
		filename = "attachment.bin"
	}

	var blob any
	if v, ok := field(obj, k.payload...); ok {
		blob = v
	}
	content, err := decodeBlob(blob)
	if err != nil {
		return conversation.Attachment{}, malformed("attachment %q: %v", filename, err)
	}

	reserved := k.reserved()
	metadata := make(map[string]any)
	for key, value := range obj {
		if _, skip := reserved[key]; skip {
			continue
		}
		metadata[key] = value
	}

	return conversation.Attachment{
		Filename:      filename,
		MimeType:      stringField(obj, k.mimeType...),
		Content:       content,
		ExtractedText: stringField(obj, k.extracted...),
		Metadata:      metadata,
	}, nil
}

// parseList parses a decoded attachment list.
func (k attachmentKeys) parseList(v any) ([]conversation.Attachment, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, malformed("attachments must be a list, got %T", v)
	}
	out := make([]conversation.Attachment, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, malformed("attachment %d is not an object", i)
		}
		att, err := k.parse(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

// conversationList returns the payload's conversation collection. A payload
// that is itself a single conversation is returned as a one-element list.
func conversationList(payload map[string]any, platform string, listKeys []string, singleMarkers []string) ([]map[string]any, error) {
	raw, ok := field(payload, listKeys...)
	if !ok {
		for _, marker := range singleMarkers {
			if _, present := payload[marker]; present {
				return []map[string]any{payload}, nil
			}
		}
		return nil, malformed("%s export missing conversations list", platform)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, malformed("%s export conversations must be a list, got %T", platform, raw)
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		conv, ok := item.(map[string]any)
		if !ok {
			return nil, malformed("conversation %d is not an object", i)
		}
		out = append(out, conv)
	}
	return out, nil
}

// objectList reads the first present candidate key as a list of objects.
func objectList(obj map[string]any, what string, keys ...string) ([]map[string]any, error) {
	raw, ok := field(obj, keys...)
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, malformed("%s must be a list, got %T", what, raw)
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, malformed("%s %d is not an object", what, i)
		}
		out = append(out, m)
	}
	return out, nil
}

// derivedExternalID identifies a conversation that carries no id of its own.
func derivedExternalID(conv map[string]any) string {
	b, err := json.Marshal(conv)
	if err != nil {
		b = []byte(fmt.Sprint(conv))
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])[:16]
}

func qualityScore(conv map[string]any) (*float64, error) {
	v, ok := field(conv, "quality_score")
	if !ok {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, malformed("quality_score is not a number: %v", v)
	}
	return &f, nil
}

// draftMessage is a message whose timestamp may still be missing.
type draftMessage struct {
	msg     conversation.Message
	hasTime bool
}

// finishThread orders messages, resolves fallback timestamps and assigns
// sequence numbers.
func (o Options) finishThread(thread *conversation.Thread, drafts []draftMessage, created, updated optionalTime, sortByTime bool) {
	if sortByTime {
		sort.SliceStable(drafts, func(i, j int) bool {
			ti, tj := drafts[i].msg.Timestamp, drafts[j].msg.Timestamp
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return drafts[i].msg.ExternalID < drafts[j].msg.ExternalID
		})
	}

	if !created.ok {
		for _, d := range drafts {
			if d.hasTime && (!created.ok || d.msg.Timestamp.Before(created.t)) {
				created = optionalTime{t: d.msg.Timestamp, ok: true}
			}
		}
	}
	if !created.ok {
		created = optionalTime{t: o.Now().UTC(), ok: true}
	}
	if !updated.ok {
		updated = created
	}
	thread.CreatedAt = created.t
	thread.UpdatedAt = updated.t

	thread.Messages = make([]conversation.Message, len(drafts))
	for i, d := range drafts {
		m := d.msg
		if !d.hasTime {
			m.Timestamp = created.t
		}
		m.Sequence = i + 1
		thread.Messages[i] = m
	}
}
