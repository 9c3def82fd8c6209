package backend

import (
	"strconv"
	"strings"

	"remsort/internal/identify"
)

// systemInstruction primes prompt-based backends for the task. The
// recipient-not-sender instruction matters: referral documents name the
// sending unit prominently, and models routinely latch onto it.
const systemInstruction = "You are an expert on medical referral documents. " +
	"Your task is to identify which department a referral should be routed to " +
	"based on its content. Analyze the text carefully and identify the recipient " +
	"(NOT the sender)."

// categoryNames flattens the catalog to the name list used in prompts and
// reply validation.
func categoryNames(catalog identify.Catalog) []string {
	cats := catalog.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}

// BuildPrompt renders the instruction prompt for prompt-based backends.
// The document text is truncated sentence-wise to maxChars to bound token cost.
func BuildPrompt(categories []string, text string, maxChars int) string {
	preview := identify.TruncateSentences(text, maxChars)

	var b strings.Builder
	b.WriteString("Analyze the following referral document and identify which department it should be routed to.\n\n")
	b.WriteString("Available departments:\n")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. Look at the recipient (not the sender)\n")
	b.WriteString("2. Look for phrases like \"refer to\", \"recipient\", \"to department\", etc.\n")
	b.WriteString("3. Analyze the content to understand what the referral concerns\n")
	b.WriteString("4. Pick the most suitable department\n")
	b.WriteString("5. Give a short rationale for your choice\n\n")
	b.WriteString("Document text:\n")
	b.WriteString(preview)
	b.WriteString("\n\nAnswer in exactly this format:\n")
	b.WriteString("Category: [department name]\n")
	b.WriteString("Confidence: [0-100]%\n")
	b.WriteString("Rationale: [short explanation of why this department was chosen]\n")
	return b.String()
}

// BuildSuggestionPrompt asks the model to propose a new department covering
// a batch of documents none of the registered departments fit.
func BuildSuggestionPrompt(existing []string, texts []string, maxChars int) string {
	var b strings.Builder
	b.WriteString("The following referral documents could not be routed to any registered department.\n\n")
	b.WriteString("Registered departments:\n")
	b.WriteString(strings.Join(existing, ", "))
	b.WriteString("\n\nDocuments:\n")
	for i, t := range texts {
		b.WriteString(strconv.Itoa(i+1) + ". " + identify.TruncateSentences(t, maxChars) + "\n")
	}
	b.WriteString("\nSuggest ONE new department that would cover these documents. ")
	b.WriteString("Do not repeat a registered department.\n\n")
	b.WriteString("Answer in exactly this format:\n")
	b.WriteString("Name: [department name]\n")
	b.WriteString("Keywords: [comma-separated keywords for this department]\n")
	return b.String()
}
