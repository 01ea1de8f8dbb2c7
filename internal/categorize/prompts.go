package categorize

import (
	"strings"

	"github.com/dvloznov/account-mirror/internal/mirror"
)

// buildSuggestPrompt constructs the instruction prompt plus the list of
// uncategorized records, formatted for LLM consumption.
func buildSuggestPrompt(records []*mirror.Record) string {
	var b strings.Builder

	b.WriteString("You are a personal finance categorization assistant.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- For EACH transaction listed below, suggest a category and subcategory.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"transaction_id\": string (copied exactly from the input)\n")
	b.WriteString("- \"category\": string\n")
	b.WriteString("- \"subcategory\": string (empty string if none applies)\n\n")

	b.WriteString("Transactions:\n")
	for _, rec := range records {
		b.WriteString("- id: " + rec.ID)
		b.WriteString(", description: " + rec.Name)
		b.WriteString(", amount: " + rec.Amount.String())
		if rec.Channel != "" {
			b.WriteString(", channel: " + rec.Channel)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Classify each transaction into the most appropriate category/subcategory.\n")
	b.WriteString("- Negative amounts are spending, positive amounts are income or refunds.\n")
	b.WriteString("- If you are unsure, use category \"Uncategorized\" with subcategory \"\".\n")
	b.WriteString("- Return ONLY valid raw JSON.\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n")
	b.WriteString("- Do NOT use ```json or any Markdown.\n")
	b.WriteString("- Output must begin with \"[\" and end with \"]\".\n")

	return b.String()
}
