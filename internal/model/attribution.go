package model

// Reference points from the annotated response back to one context sentence.
// Numbers are scoped to a single attribution call.
type Reference struct {
	Number          int    `json:"reference_number"`
	Context         string `json:"context"`
	OriginalContext string `json:"original_context"`
	SourceName      string `json:"source_name"`
}

// AttributionRecord describes how one response segment was attributed.
// Context, SourceName and OriginalContext are nil (JSON null) when Matched is
// false.
type AttributionRecord struct {
	Segment         string  `json:"response_segment"`
	Matched         bool    `json:"matched"`
	Context         *string `json:"context"`
	SourceName      *string `json:"source_name"`
	Score           float64 `json:"similarity_score"` // 0-100
	OriginalContext *string `json:"original_context"`
	Reference       int     `json:"reference_number,omitempty"`
}

// Attribution is the result of attributing one response
type Attribution struct {
	Text        string              `json:"text_response"`    // Response with [n] markers
	Explanation string              `json:"text_explanation"` // JSON array of references
	References  []Reference         `json:"references"`
	Records     []AttributionRecord `json:"attribution"`
}

// Answer is the shape the dashboard API hands to the chat front end
type Answer struct {
	TextResponse    string `json:"textResponse"`
	TextExplanation string `json:"textExplanation"`
	Data            string `json:"data"` // Optional payload (e.g., report data); empty for plain answers
}

// Answer projects the attribution onto the chat answer payload
func (a *Attribution) Answer() Answer {
	return Answer{
		TextResponse:    a.Text,
		TextExplanation: a.Explanation,
	}
}
