// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import "fmt"

// BasePrompt is the assistant persona used when no agent overrides it.
const BasePrompt = "You are Spark, a helpful AI assistant running on a local NVIDIA Jetson system. Be concise but thorough."

// KBPromptSuffix is appended while the knowledge base toggle is on.
const KBPromptSuffix = " Use your knowledge base to provide accurate information about CCSA policies and procedures when relevant."

// SystemPrompt returns the base prompt, extended when the KB is in use.
func SystemPrompt(useKB bool) string {
	return WithKB(BasePrompt, useKB)
}

// WithKB appends the KB instruction to base when useKB is set.
func WithKB(base string, useKB bool) string {
	if useKB {
		return base + KBPromptSuffix
	}
	return base
}

// AttachFile wraps a question with an attached file's content.
func AttachFile(name, content, question string) string {
	return fmt.Sprintf("[Attached file: %s]\n\nFile content:\n%s\n\n---\n\nUser question: %s", name, content, question)
}

// KBContextMessage wraps assembled KB text as a system message.
func KBContextMessage(kbText string) ChatMessage {
	return NewSystemMessage("Knowledge base documents for context:\n\n" + kbText +
		"\n\nUse these documents to inform your response if relevant.")
}

// BuildMessages orders a request: the system prompt, then the KB context
// when there is any, then the conversation.
func BuildMessages(system, kbText string, history []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+2)
	out = append(out, NewSystemMessage(system))
	if kbText != "" {
		out = append(out, KBContextMessage(kbText))
	}
	return append(out, history...)
}
