package dialect

import (
	"fmt"
	"sort"
	"strings"
)

// detectRule inspects a payload and reports a dialect when it matches.
type detectRule struct {
	name  string
	match func(p probe) (Dialect, bool)
}

// detectRules are evaluated in order; the first match wins.
var detectRules = []detectRule{
	{name: "structural marker", match: matchStructure},
	{name: "key name", match: matchKeyNames},
	{name: "type or source hint", match: matchHints},
	{name: "id marker", match: matchIDMarkers},
	{name: "meta text", match: matchMeta},
}

// probe is a read-only view of a payload prepared once for all rules.
type probe struct {
	payload map[string]any
	keys    []string // lower-cased, sorted
}

func newProbe(payload map[string]any) probe {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, strings.ToLower(k))
	}
	sort.Strings(keys)
	return probe{payload: payload, keys: keys}
}

func (p probe) hasKey(names ...string) bool {
	for _, k := range p.keys {
		for _, name := range names {
			if k == name {
				return true
			}
		}
	}
	return false
}

func (p probe) keyContains(fragments ...string) bool {
	for _, k := range p.keys {
		for _, f := range fragments {
			if strings.Contains(k, f) {
				return true
			}
		}
	}
	return false
}

func (p probe) lowerString(key string) string {
	s, ok := p.payload[key].(string)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// Detect classifies payload into a supported dialect.
func Detect(payload map[string]any) (Dialect, error) {
	d, _, err := DetectWithRule(payload)
	return d, err
}

// DetectWithRule is Detect that also names the rule that matched.
func DetectWithRule(payload map[string]any) (Dialect, string, error) {
	p := newProbe(payload)
	for _, rule := range detectRules {
		if d, ok := rule.match(p); ok {
			return d, rule.name, nil
		}
	}
	return "", "", fmt.Errorf("%w", ErrUnsupportedFormat)
}

func matchStructure(p probe) (Dialect, bool) {
	if p.hasKey("mapping") || strings.HasPrefix(p.lowerString("format"), "chatgpt") {
		return ChatGPT, true
	}
	if p.hasKey("chat_messages") {
		return Claude, true
	}
	for _, key := range []string{"conversations", "threads", "chats"} {
		items, ok := p.payload[key].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			conv, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := conv["mapping"].(map[string]any); ok {
				return ChatGPT, true
			}
			if _, ok := conv["chat_messages"]; ok {
				return Claude, true
			}
		}
	}
	return "", false
}

func matchKeyNames(p probe) (Dialect, bool) {
	if p.keyContains("chatgpt") {
		return ChatGPT, true
	}
	if p.keyContains("claude", "anthropic") {
		return Claude, true
	}
	return "", false
}

func matchHints(p probe) (Dialect, bool) {
	if strings.Contains(p.lowerString("type"), "claude") || strings.HasPrefix(p.lowerString("source"), "claude") {
		return Claude, true
	}
	return "", false
}

func matchIDMarkers(p probe) (Dialect, bool) {
	if p.hasKey("conversation_uuid", "workspace") {
		return Claude, true
	}
	return "", false
}

func matchMeta(p probe) (Dialect, bool) {
	meta, ok := p.payload["meta"].(map[string]any)
	if !ok {
		return "", false
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, strings.ToLower(stringify(meta[k])))
	}
	text := strings.Join(values, " ")

	if strings.Contains(text, "claude") || strings.Contains(text, "anthropic") {
		return Claude, true
	}
	if strings.Contains(text, "chatgpt") || strings.Contains(text, "openai") {
		return ChatGPT, true
	}
	return "", false
}
