package dialect

import (
	"chatvault/internal/conversation"
)

var claudeAttachmentKeys = attachmentKeys{
	filename:     []string{"filename", "file_name", "name"},
	filenameLast: []string{"id"},
	mimeType:     []string{"mime_type", "mimeType", "mimetype", "file_type"},
	extracted:    []string{"extracted_text", "extracted_content", "extract"},
	payload:      []string{"data", "base64", "body", "text"},
}

// ClaudeNormalizer converts Claude exports. Messages keep their input order.
type ClaudeNormalizer struct {
	opts Options
}

// Dialect implements Normalizer.
func (n *ClaudeNormalizer) Dialect() Dialect { return Claude }

// Platform implements Normalizer.
func (n *ClaudeNormalizer) Platform() string { return "Claude" }

// Normalize implements Normalizer.
func (n *ClaudeNormalizer) Normalize(payload map[string]any) (*conversation.Import, error) {
	convs, err := conversationList(payload, "Claude", []string{"conversations", "chats"}, []string{"chat_messages", "messages"})
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

func (n *ClaudeNormalizer) thread(conv map[string]any) (conversation.Thread, error) {
	thread := conversation.Thread{
		ExternalID: stringField(conv, "uuid", "id", "conversation_uuid"),
		Title:      stringField(conv, "name", "title"),
		Summary:    stringField(conv, "summary"),
	}
	if thread.ExternalID == "" {
		thread.ExternalID = derivedExternalID(conv)
	}

	score, err := qualityScore(conv)
	if err != nil {
		return thread, err
	}
	thread.QualityScore = score

	created, err := n.opts.timeField(conv, "created_at", "created")
	if err != nil {
		return thread, err
	}
	updated, err := n.opts.timeField(conv, "updated_at", "modified_at")
	if err != nil {
		return thread, err
	}

	items, err := objectList(conv, "message", "messages", "chat_messages", "conversation")
	if err != nil {
		return thread, err
	}
	drafts := make([]draftMessage, 0, len(items))
	for _, item := range items {
		d, keep, err := n.message(item)
		if err != nil {
			return thread, err
		}
		if keep {
			drafts = append(drafts, d)
		}
	}

	n.opts.finishThread(&thread, drafts, created, updated, false)
	return thread, nil
}

func (n *ClaudeNormalizer) message(msg map[string]any) (draftMessage, bool, error) {
	var roleValue any
	if v, ok := field(msg, "role", "sender", "speaker", "type"); ok {
		roleValue = v
	}
	role := resolveRole(roleValue, roleRemap)
	if !conversation.IsRole(role) {
		return draftMessage{}, false, nil
	}

	ts, err := n.opts.timeField(msg, "timestamp", "created_at")
	if err != nil {
		return draftMessage{}, false, err
	}

	var content any
	if v, ok := field(msg, "text", "content"); ok {
		content = v
	}

	var rawAttachments any
	if v, ok := field(msg, "attachments", "files"); ok {
		rawAttachments = v
	}
	attachments, err := claudeAttachmentKeys.parseList(rawAttachments)
	if err != nil {
		return draftMessage{}, false, err
	}

	return draftMessage{
		msg: conversation.Message{
			ExternalID:  stringField(msg, "uuid", "id"),
			Role:        role,
			Content:     resolveContent(content),
			ContentType: contentType(msg),
			Timestamp:   ts.t,
			Attachments: attachments,
		},
		hasTime: ts.ok,
	}, true, nil
}
