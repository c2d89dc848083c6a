package domain

import (
	"regexp"
	"strings"
)

// QuestionKind identifies which variant payload a question carries.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindBlock          QuestionKind = "block"
	KindCompiler       QuestionKind = "compiler"
)

// DefaultPoints is awarded for a question when the author does not override it.
const DefaultPoints = 10

// Question is a tagged variant: exactly one of Choice, Block or Compiler is
// populated, matching Kind. The remaining fields apply to every kind.
type Question struct {
	ID          int64 // 0 until the question is first committed to a quiz
	Kind        QuestionKind
	Text        string
	ImageURL    string
	Points      int
	Explanation string

	Choice   *ChoiceConfig
	Block    *BlockConfig
	Compiler *CompilerConfig
}

// ChoiceConfig is the multiple_choice payload.
type ChoiceConfig struct {
	Options        []string
	CorrectAnswer  int // index into Options
	ShuffleOptions bool
}

// BlockConfig is the block (visual programming) payload.
type BlockConfig struct {
	ReferenceXML string
	InitialXML   string
	Toolbox      string
}

// CompilerConfig is the compiler (typed code) payload.
type CompilerConfig struct {
	Language         Language
	AllowedLanguages []Language
	InitialCode      string
	ReferenceCode    string
}

// NewQuestion returns a question of the given kind with its payload seeded
// to the authoring defaults for that kind.
func NewQuestion(kind QuestionKind) Question {
	q := Question{Kind: kind, Points: DefaultPoints}
	switch kind {
	case KindBlock:
		q.Block = &BlockConfig{}
	case KindCompiler:
		q.Compiler = NewCompilerConfig(DefaultLanguage)
	default:
		q.Kind = KindMultipleChoice
		q.Choice = &ChoiceConfig{Options: make([]string, 4), ShuffleOptions: true}
	}
	return q
}

// NewCompilerConfig seeds a compiler payload for the given language: the
// initial code template, the placeholder reference and the default set of
// languages a solver may answer in.
func NewCompilerConfig(lang Language) *CompilerConfig {
	return &CompilerConfig{
		Language:         lang,
		AllowedLanguages: DefaultAllowedLanguages(),
		InitialCode:      InitialCodeFor(lang),
		ReferenceCode:    ReferencePlaceholder(lang),
	}
}

// Clone returns a deep copy of the question, detaching payload slices.
func (q Question) Clone() Question {
	out := q
	if q.Choice != nil {
		c := *q.Choice
		c.Options = append([]string(nil), q.Choice.Options...)
		out.Choice = &c
	}
	if q.Block != nil {
		b := *q.Block
		out.Block = &b
	}
	if q.Compiler != nil {
		c := *q.Compiler
		c.AllowedLanguages = append([]Language(nil), q.Compiler.AllowedLanguages...)
		out.Compiler = &c
	}
	return out
}

// Language is a programming language selectable for compiler questions.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangGo         Language = "go"
	LangRuby       Language = "ruby"
)

// DefaultLanguage is the compiler language preselected for new questions.
const DefaultLanguage = LangJavaScript

var supportedLanguages = []Language{
	LangJavaScript, LangTypeScript, LangPython, LangJava,
	LangC, LangCPP, LangCSharp, LangGo, LangRuby,
}

var languageAliases = map[string]Language{
	"js":     LangJavaScript,
	"ts":     LangTypeScript,
	"py":     LangPython,
	"c++":    LangCPP,
	"c#":     LangCSharp,
	"golang": LangGo,
}

// SupportedLanguages lists the selectable compiler languages in menu order.
func SupportedLanguages() []Language {
	return append([]Language(nil), supportedLanguages...)
}

// DefaultAllowedLanguages is the language set offered to solvers when the
// author has not narrowed it down.
func DefaultAllowedLanguages() []Language {
	return SupportedLanguages()
}

// NormalizeLanguage lowercases a language name and resolves common aliases.
// Unknown names pass through so stored data is never rewritten silently.
func NormalizeLanguage(name string) Language {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return DefaultLanguage
	}
	if lang, ok := languageAliases[n]; ok {
		return lang
	}
	return Language(n)
}

// CommentToken returns the line-comment token for a language.
func CommentToken(lang Language) string {
	switch lang {
	case LangPython, LangRuby:
		return "#"
	default:
		return "//"
	}
}

const placeholderText = "Enter the correct code solution here..."

// ReferencePlaceholder builds the seeded reference-code comment for a
// language, e.g. "// Enter the correct code solution here...".
func ReferencePlaceholder(lang Language) string {
	return CommentToken(lang) + " " + placeholderText
}

// Matches the seeded placeholder regardless of which language produced it,
// so a language switch can recognize a still-untouched reference.
var placeholderPattern = regexp.MustCompile(`^\s*(//|#)\s*Enter the correct code solution here\.\.\.\s*$`)

// IsReferencePlaceholder reports whether a reference code value is still the
// seeded placeholder rather than an authored solution.
func IsReferencePlaceholder(code string) bool {
	return placeholderPattern.MatchString(code)
}

var initialCodeTemplates = map[Language]string{
	LangJavaScript: "function solution() {\n  // Write your code here\n}\n",
	LangTypeScript: "function solution(): void {\n  // Write your code here\n}\n",
	LangPython:     "def solution():\n    # Write your code here\n    pass\n",
	LangJava:       "public class Main {\n    public static void main(String[] args) {\n        // Write your code here\n    }\n}\n",
	LangC:          "#include <stdio.h>\n\nint main(void) {\n    /* Write your code here */\n    return 0;\n}\n",
	LangCPP:        "#include <iostream>\n\nint main() {\n    // Write your code here\n    return 0;\n}\n",
	LangCSharp:     "using System;\n\nclass Program {\n    static void Main() {\n        // Write your code here\n    }\n}\n",
	LangGo:         "package main\n\nfunc main() {\n\t// Write your code here\n}\n",
	LangRuby:       "def solution\n  # Write your code here\nend\n",
}

// InitialCodeFor returns the starter snippet shown to solvers for a language.
func InitialCodeFor(lang Language) string {
	if tpl, ok := initialCodeTemplates[lang]; ok {
		return tpl
	}
	return CommentToken(lang) + " Write your code here\n"
}
