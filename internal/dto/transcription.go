package dto

// TranscriptSegment is one speaker turn.
type TranscriptSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// TranscriptionResult is the payload of POST /transcription.
type TranscriptionResult struct {
	ID       string              `json:"id"`
	Status   string              `json:"status"`
	Text     string              `json:"text"`
	Segments []TranscriptSegment `json:"segments"`
	Demo     bool                `json:"demo,omitempty"`
}
