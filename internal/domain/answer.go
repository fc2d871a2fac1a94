package domain

import (
	"encoding/json"
	"fmt"
)

type AnswerKind string

const (
	AnswerMultipleChoice AnswerKind = "multiple_choice"
	AnswerShortText      AnswerKind = "short_text"
	AnswerTrueFalse      AnswerKind = "true_false"
	AnswerMatching       AnswerKind = "matching"
	AnswerUnknown        AnswerKind = "unknown"
)

type MultipleChoiceAnswer struct {
	Selected string `json:"selected"`
}

type ShortTextAnswer struct {
	Text string `json:"text"`
}

type TrueFalseAnswer struct {
	Value bool `json:"value"`
}

type MatchingAnswer struct {
	Pairs map[string]string `json:"pairs"`
}

// AnswerPayload is a tagged union over the answer shapes the exercise types
// produce. Payloads with an unrecognized kind round-trip byte-preserved
// through Raw so a newer client's answers survive an older engine.
type AnswerPayload struct {
	Kind           AnswerKind
	MultipleChoice *MultipleChoiceAnswer
	ShortText      *ShortTextAnswer
	TrueFalse      *TrueFalseAnswer
	Matching       *MatchingAnswer
	Raw            json.RawMessage
}

type answerEnvelope struct {
	Kind     AnswerKind         `json:"kind"`
	Selected *string            `json:"selected,omitempty"`
	Text     *string            `json:"text,omitempty"`
	Value    *bool              `json:"value,omitempty"`
	Pairs    *map[string]string `json:"pairs,omitempty"`
}

func (p AnswerPayload) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case AnswerMultipleChoice:
		if p.MultipleChoice == nil {
			return nil, fmt.Errorf("answer kind %q without variant", p.Kind)
		}
		return json.Marshal(answerEnvelope{Kind: p.Kind, Selected: &p.MultipleChoice.Selected})
	case AnswerShortText:
		if p.ShortText == nil {
			return nil, fmt.Errorf("answer kind %q without variant", p.Kind)
		}
		return json.Marshal(answerEnvelope{Kind: p.Kind, Text: &p.ShortText.Text})
	case AnswerTrueFalse:
		if p.TrueFalse == nil {
			return nil, fmt.Errorf("answer kind %q without variant", p.Kind)
		}
		return json.Marshal(answerEnvelope{Kind: p.Kind, Value: &p.TrueFalse.Value})
	case AnswerMatching:
		if p.Matching == nil {
			return nil, fmt.Errorf("answer kind %q without variant", p.Kind)
		}
		return json.Marshal(answerEnvelope{Kind: p.Kind, Pairs: &p.Matching.Pairs})
	default:
		if len(p.Raw) > 0 {
			return append(json.RawMessage(nil), p.Raw...), nil
		}
		return []byte(`{"kind":"unknown"}`), nil
	}
}

func (p *AnswerPayload) UnmarshalJSON(data []byte) error {
	var env answerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Not an object we understand; keep the raw bytes.
		*p = AnswerPayload{Kind: AnswerUnknown, Raw: append(json.RawMessage(nil), data...)}
		return nil
	}
	switch env.Kind {
	case AnswerMultipleChoice:
		sel := ""
		if env.Selected != nil {
			sel = *env.Selected
		}
		*p = AnswerPayload{Kind: env.Kind, MultipleChoice: &MultipleChoiceAnswer{Selected: sel}}
	case AnswerShortText:
		txt := ""
		if env.Text != nil {
			txt = *env.Text
		}
		*p = AnswerPayload{Kind: env.Kind, ShortText: &ShortTextAnswer{Text: txt}}
	case AnswerTrueFalse:
		val := false
		if env.Value != nil {
			val = *env.Value
		}
		*p = AnswerPayload{Kind: env.Kind, TrueFalse: &TrueFalseAnswer{Value: val}}
	case AnswerMatching:
		pairs := map[string]string{}
		if env.Pairs != nil {
			pairs = *env.Pairs
		}
		*p = AnswerPayload{Kind: env.Kind, Matching: &MatchingAnswer{Pairs: pairs}}
	default:
		*p = AnswerPayload{Kind: AnswerUnknown, Raw: append(json.RawMessage(nil), data...)}
	}
	return nil
}
