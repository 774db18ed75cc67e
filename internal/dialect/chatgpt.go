package dialect

import (
	"chatvault/internal/conversation"
)

var roleRemap = map[string]string{
	"human":     conversation.RoleUser,
	"computer":  conversation.RoleAssistant,
	"ai":        conversation.RoleAssistant,
	"model":     conversation.RoleAssistant,
	"developer": conversation.RoleSystem,
}

var chatGPTAttachmentKeys = attachmentKeys{
	filename:  []string{"filename", "file_name", "name"},
	mimeType:  []string{"mime_type", "mimeType", "mimetype", "file_type"},
	extracted: []string{"extracted_text", "extracted_content", "extract"},
	payload:   []string{"data", "base64", "content", "body"},
}

// ChatGPTNormalizer converts ChatGPT exports, either flat message lists or the
// mapping node tree of the official export.
type ChatGPTNormalizer struct {
	opts Options
}

// Dialect implements Normalizer.
func (n *ChatGPTNormalizer) Dialect() Dialect { return ChatGPT }

// Platform implements Normalizer.
func (n *ChatGPTNormalizer) Platform() string { return "ChatGPT" }

// Normalize implements Normalizer.
func (n *ChatGPTNormalizer) Normalize(payload map[string]any) (*conversation.Import, error) {
	convs, err := conversationList(payload, "ChatGPT", []string{"conversations", "threads"}, []string{"mapping", "messages"})
	if err != nil {
		return nil, err
	}

	out := &conversation.Import{Platform: n.Platform(), Threads: make([]conversation.Thread, 0, len(convs))}
	for _, conv := range convs {
		thread, err := n.thread(conv)
		if err != nil {
			return nil, err
		}
		out.Threads = append(out.Threads, thread)
	}
	return out, nil
}

func (n *ChatGPTNormalizer) thread(conv map[string]any) (conversation.Thread, error) {
	thread := conversation.Thread{
		ExternalID: stringField(conv, "id", "conversation_id", "uuid"),
		Title:      stringField(conv, "title", "name"),
		Summary:    stringField(conv, "summary", "current_node_summary"),
	}
	if thread.ExternalID == "" {
		thread.ExternalID = derivedExternalID(conv)
	}

	score, err := qualityScore(conv)
	if err != nil {
		return thread, err
	}
	thread.QualityScore = score

	created, err := n.opts.timeField(conv, "create_time", "created_at")
	if err != nil {
		return thread, err
	}
	updated, err := n.opts.timeField(conv, "update_time", "updated_at")
	if err != nil {
		return thread, err
	}

	var drafts []draftMessage
	sortByTime := false
	if mapping, ok := conv["mapping"].(map[string]any); ok && emptyList(conv["messages"]) {
		drafts, err = n.mappingMessages(mapping)
		sortByTime = true
	} else {
		drafts, err = n.listMessages(conv)
	}
	if err != nil {
		return thread, err
	}

	n.opts.finishThread(&thread, drafts, created, updated, sortByTime)
	return thread, nil
}

// emptyList reports whether v is absent or an empty JSON array.
func emptyList(v any) bool {
	if v == nil {
		return true
	}
	items, ok := v.([]any)
	return ok && len(items) == 0
}

func (n *ChatGPTNormalizer) listMessages(conv map[string]any) ([]draftMessage, error) {
	items, err := objectList(conv, "message", "messages")
	if err != nil {
		return nil, err
	}
	drafts := make([]draftMessage, 0, len(items))
	for _, item := range items {
		d, keep, err := n.message(item, stringField(item, "id"))
		if err != nil {
			return nil, err
		}
		if keep {
			drafts = append(drafts, d)
		}
	}
	return drafts, nil
}

// mappingMessages walks the node tree. Nodes without a message (the root and
// structural nodes) are skipped.
func (n *ChatGPTNormalizer) mappingMessages(mapping map[string]any) ([]draftMessage, error) {
	drafts := make([]draftMessage, 0, len(mapping))
	for key, raw := range mapping {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		msg, ok := node["message"].(map[string]any)
		if !ok {
			continue
		}
		id := stringField(msg, "id")
		if id == "" {
			id = key
		}
		d, keep, err := n.message(msg, id)
		if err != nil {
			return nil, err
		}
		if keep {
			drafts = append(drafts, d)
		}
	}
	return drafts, nil
}

func (n *ChatGPTNormalizer) message(msg map[string]any, externalID string) (draftMessage, bool, error) {
	var roleValue any
	if v, ok := field(msg, "author", "role"); ok {
		roleValue = v
	}
	role := resolveRole(roleValue, roleRemap)
	if !conversation.IsRole(role) {
		return draftMessage{}, false, nil
	}

	ts, err := n.opts.timeField(msg, "timestamp", "create_time")
	if err != nil {
		return draftMessage{}, false, err
	}

	var content any
	if v, ok := field(msg, "content", "text"); ok {
		content = v
	}

	var rawAttachments any
	if v, ok := msg["attachments"]; ok {
		rawAttachments = v
	} else if meta, ok := msg["metadata"].(map[string]any); ok {
		rawAttachments = meta["attachments"]
	}
	attachments, err := chatGPTAttachmentKeys.parseList(rawAttachments)
	if err != nil {
		return draftMessage{}, false, err
	}

	return draftMessage{
		msg: conversation.Message{
			ExternalID:  externalID,
			Role:        role,
			Content:     resolveContent(content),
			ContentType: contentType(msg),
			Timestamp:   ts.t,
			Attachments: attachments,
		},
		hasTime: ts.ok,
	}, true, nil
}
