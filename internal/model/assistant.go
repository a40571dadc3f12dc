package model

import "time"

// AssistantQuery records one conversational exchange with the
// assistant: the user's input, the generated answer and, for voice
// replies, the URL of the synthesized audio file.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who asked.
//  QueryType – "text" or "voice".
//  UserInput – original user text (in the user's language).
//  Response  – assistant answer (translated back to the user's language).
//  Language  – language code of the exchange.
//  AudioURL  – relative URL of the TTS audio file (empty for text-only).
//  CreatedAt – when the exchange happened.
type AssistantQuery struct {
	ID        uint64    // assistant_queries.id
	UserID    uint64    // assistant_queries.user_id
	QueryType string    // assistant_queries.query_type
	UserInput string    // assistant_queries.user_input
	Response  string    // assistant_queries.assistant_response
	Language  string    // assistant_queries.language
	AudioURL  string    // assistant_queries.audio_url (nullable)
	CreatedAt time.Time // assistant_queries.created_at
}
