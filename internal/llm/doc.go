// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm talks to an OpenAI-compatible chat completions server.
//
// Requests are non-streaming. The client does not retry; a failed request
// is reported to the user as is.
//
// # Usage
//
//	client := llm.NewClient(cfg.Chat.Endpoint).WithModel(cfg.Chat.Model)
//	msgs := llm.BuildMessages(llm.SystemPrompt(true), kbText, history)
//	resp, err := client.Chat(ctx, msgs)
package llm
