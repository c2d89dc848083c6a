package domain

import (
	"encoding/json"
	"strings"
)

// questionWire is the flat serialization shape shared with the platform API
// and previously exported files. Variant fields are flattened onto one object
// and the kind travels as a type string plus isBlock/isCompiler flags.
// Optional fields are pointers so absence can be told apart from zero values.
type questionWire struct {
	ID          int64  `json:"id"`
	Type        string `json:"type,omitempty"`
	IsBlock     *bool  `json:"isBlock,omitempty"`
	IsCompiler  *bool  `json:"isCompiler,omitempty"`
	Text        string `json:"questionText"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Points      *int   `json:"points,omitempty"`
	Explanation string `json:"explanation,omitempty"`

	Options        []string `json:"options,omitempty"`
	CorrectAnswer  *int     `json:"correctAnswer,omitempty"`
	ShuffleOptions *bool    `json:"shuffleOptions,omitempty"`

	ReferenceXML string `json:"referenceXml,omitempty"`
	InitialXML   string `json:"initialXml,omitempty"`
	Toolbox      string `json:"toolbox,omitempty"`

	Language         string   `json:"language,omitempty"`
	AllowedLanguages []string `json:"allowedLanguages,omitempty"`
	InitialCode      string   `json:"initialCode,omitempty"`
	ReferenceCode    string   `json:"referenceCode,omitempty"`
}

// MarshalJSON writes the flat legacy shape. Both boolean flags are always
// present because older consumers branch on them rather than on type.
func (q Question) MarshalJSON() ([]byte, error) {
	isBlock := q.Kind == KindBlock
	isCompiler := q.Kind == KindCompiler
	points := q.Points
	w := questionWire{
		ID:          q.ID,
		Type:        string(q.Kind),
		IsBlock:     &isBlock,
		IsCompiler:  &isCompiler,
		Text:        q.Text,
		ImageURL:    q.ImageURL,
		Points:      &points,
		Explanation: q.Explanation,
	}
	switch {
	case q.Kind == KindBlock && q.Block != nil:
		w.ReferenceXML = q.Block.ReferenceXML
		w.InitialXML = q.Block.InitialXML
		w.Toolbox = q.Block.Toolbox
	case q.Kind == KindCompiler && q.Compiler != nil:
		w.Language = string(q.Compiler.Language)
		w.AllowedLanguages = make([]string, len(q.Compiler.AllowedLanguages))
		for i, lang := range q.Compiler.AllowedLanguages {
			w.AllowedLanguages[i] = string(lang)
		}
		w.InitialCode = q.Compiler.InitialCode
		w.ReferenceCode = q.Compiler.ReferenceCode
	case q.Choice != nil:
		w.Options = q.Choice.Options
		correct := q.Choice.CorrectAnswer
		shuffle := q.Choice.ShuffleOptions
		w.CorrectAnswer = &correct
		w.ShuffleOptions = &shuffle
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the flat legacy shape back into the tagged variant.
// The boolean flags win over the type string because files that predate the
// type field carry only the flags; anything unrecognizable is treated as
// multiple choice. Absent optional fields get their documented defaults.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind := inferKind(w)
	out := Question{
		ID:          w.ID,
		Kind:        kind,
		Text:        w.Text,
		ImageURL:    w.ImageURL,
		Points:      DefaultPoints,
		Explanation: w.Explanation,
	}
	if w.Points != nil {
		out.Points = *w.Points
	}
	switch kind {
	case KindBlock:
		out.Block = &BlockConfig{
			ReferenceXML: w.ReferenceXML,
			InitialXML:   w.InitialXML,
			Toolbox:      w.Toolbox,
		}
	case KindCompiler:
		lang := NormalizeLanguage(w.Language)
		cfg := &CompilerConfig{
			Language:      lang,
			InitialCode:   w.InitialCode,
			ReferenceCode: w.ReferenceCode,
		}
		if len(w.AllowedLanguages) == 0 {
			cfg.AllowedLanguages = DefaultAllowedLanguages()
		} else {
			cfg.AllowedLanguages = make([]Language, len(w.AllowedLanguages))
			for i, name := range w.AllowedLanguages {
				cfg.AllowedLanguages[i] = NormalizeLanguage(name)
			}
		}
		if cfg.InitialCode == "" {
			cfg.InitialCode = InitialCodeFor(lang)
		}
		out.Compiler = cfg
	default:
		cfg := &ChoiceConfig{Options: w.Options, ShuffleOptions: true}
		if cfg.Options == nil {
			cfg.Options = []string{}
		}
		if w.CorrectAnswer != nil {
			cfg.CorrectAnswer = *w.CorrectAnswer
		}
		if w.ShuffleOptions != nil {
			cfg.ShuffleOptions = *w.ShuffleOptions
		}
		out.Choice = cfg
	}
	*q = out
	return nil
}

func inferKind(w questionWire) QuestionKind {
	switch {
	case w.IsCompiler != nil && *w.IsCompiler:
		return KindCompiler
	case w.IsBlock != nil && *w.IsBlock:
		return KindBlock
	}
	switch strings.ToLower(strings.TrimSpace(w.Type)) {
	case string(KindCompiler):
		return KindCompiler
	case string(KindBlock):
		return KindBlock
	default:
		return KindMultipleChoice
	}
}
