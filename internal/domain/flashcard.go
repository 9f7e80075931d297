package domain

import "github.com/google/uuid"

// Flashcard is the read-only view of a card owned by the content service.
// The scheduler only needs its identity, the note it belongs to and the text
// shown during review. Question and Answer are HTML fragments as authored.
type Flashcard struct {
	ID       uuid.UUID `json:"id"`
	NoteID   uuid.UUID `json:"note_id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
}
