package conversation

import (
	"testing"
	"time"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "whitespace only", text: "  \n\t ", want: 0},
		{name: "single word", text: "hello", want: 1},
		{name: "three words", text: "a b c", want: 3},
		{name: "ten words", text: "one two three four five six seven eight nine ten", want: 13},
		{name: "mixed whitespace", text: "a\tb\nc   d", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestThread_Totals(t *testing.T) {
	now := time.Now()
	thread := Thread{
		ExternalID: "t1",
		CreatedAt:  now,
		UpdatedAt:  now,
		Messages: []Message{
			{Role: RoleUser, Content: "a b c", Sequence: 1},
			{Role: RoleAssistant, Content: "", Sequence: 2},
			{Role: RoleAssistant, Content: "hi", Sequence: 3, Attachments: []Attachment{{Filename: "x.txt"}}},
		},
	}

	if got := thread.MessageCount(); got != 3 {
		t.Errorf("MessageCount() = %d, want 3", got)
	}
	if got := thread.TotalTokens(); got != 4 {
		t.Errorf("TotalTokens() = %d, want 4", got)
	}
	if thread.Messages[0].HasAttachments() {
		t.Error("HasAttachments() = true for message without attachments")
	}
	if !thread.Messages[2].HasAttachments() {
		t.Error("HasAttachments() = false for message with attachment")
	}
}

func TestIsRole(t *testing.T) {
	for _, role := range []string{RoleUser, RoleAssistant, RoleSystem} {
		if !IsRole(role) {
			t.Errorf("IsRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "human", "tool", "User"} {
		if IsRole(role) {
			t.Errorf("IsRole(%q) = true, want false", role)
		}
	}
}
