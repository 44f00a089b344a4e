package gemini

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the extraction instruction for one document.
// When the caller supplied keywords the model is told to prioritize them;
// otherwise it performs a comprehensive generic extraction.
func BuildPrompt(fileName string, keywords []string) string {
	var b strings.Builder
	b.WriteString("You are a document data extraction engine. ")
	b.WriteString(fmt.Sprintf("Extract structured data from the attached PDF document named %q.\n\n", fileName))

	if len(keywords) > 0 {
		b.WriteString("Prioritize extracting values for these fields: ")
		b.WriteString(strings.Join(keywords, ", "))
		b.WriteString(". Extract additional clearly identifiable fields after those.\n\n")
	} else {
		b.WriteString("Extract every clearly identifiable field in the document: ")
		b.WriteString("dates, amounts, identifiers, names, addresses, line items, totals.\n\n")
	}

	b.WriteString("Rules:\n")
	b.WriteString("- Each item in structuredData is one field with key, value, and a confidence between 0 and 1.\n")
	b.WriteString("- Keys are short snake_case labels. Values are the literal text from the document.\n")
	b.WriteString("- Do not invent values; omit fields you cannot find.\n")
	b.WriteString("- extractedKeywords lists the field keys you extracted.\n")
	b.WriteString("- fileName echoes the document name.\n")
	return b.String()
}
