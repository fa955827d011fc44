package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the built-in
	// default or an error for unknown names.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAskSystem grounds direct question answering.
	// This prompt has no format placeholders.
	PromptAskSystem = "ask_system"

	// PromptDraftSystem grounds long-form section writing.
	// The template expects a %d placeholder for the section word target.
	PromptDraftSystem = "draft_system"

	// PromptOutlineSystem asks for a section plan.
	// The template expects a %d placeholder for the total word target.
	PromptOutlineSystem = "outline_system"

	// PromptCiteSystem asks for footnotes on one paragraph.
	// This prompt has no format placeholders.
	PromptCiteSystem = "cite_system"
)

// DefaultPrompts returns the built-in prompt templates.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptAskSystem: `You are a research assistant. Answer ONLY using the provided context. If not answerable, reply exactly: Not in library.
Cite every factual claim like [Title, Year, p.X–Y] and support it with a short verbatim quotation from the context.
Never invent sources, authors, years or page numbers.
Start with 3–5 bullet points, then details.`,

		PromptDraftSystem: `You are a historian's assistant. Write ~%d words ONLY using the provided context. If evidence is missing, reply exactly: Not in library.
Use Oxford footnotes with page numbers, placing ~1 footnote every 120–180 words from varied sources when possible.
Support each factual clause with a short verbatim quotation from the context.
Do not invent sources, authors, years, details or page numbers.
Return JSON with keys: {"text":"<markdown with footnotes>", "bibliography":[{"source_id":<int|null>,"text":"Oxford bibliography"}]}.`,

		PromptOutlineSystem: `You are an academic planning assistant. Given the user's draft, produce an outline to expand it to ~%d words.
Return STRICT JSON with: sections: [{title, claims: [..], target}]. Do not write prose.`,

		PromptCiteSystem: `You are an academic assistant. Match the ideas and facts in the paragraph with supporting sources ONLY from the provided context.
Write one Oxford-style footnote per supported claim, using the exact page ranges from the context metadata (p.xx–yy), and quote a short verbatim phrase from the source in each.
Do NOT invent sources, authors, years, publishers or page numbers. If publisher or place is unknown, omit it rather than guessing.
Return STRICT JSON: {"footnotes":[{"source_id":<int|null>,"text":"..."}],"bibliography":[{"source_id":<int|null>,"text":"Oxford bibliography entry"}]}.`,
	}
}

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses DefaultPrompts.
	SetPromptStore(store PromptStore)
}
