package scanning

import "fmt"

// receiptPromptTemplate is the shared prompt used by all LLM providers for
// turning OCR text from a gas station receipt into structured fields. The
// extracted text is embedded verbatim via %s.
const receiptPromptTemplate = `You are a fuel receipt parser. The following text was extracted from a photo of a gas station receipt using optical character recognition, so it may contain recognition errors, odd spacing, or unrelated fragments:

---
%s
---

Extract the following values:

1. "gallons": the number of gallons of fuel purchased. Look for labels like "GALLONS", "GAL", "VOLUME", or a quantity next to the fuel grade.
2. "pricePerGallon": the price of one gallon. Look for "PRICE/GAL", "$/G", or the unit price line.
3. "totalCost": the total amount paid for fuel. Look for "TOTAL", "FUEL TOTAL", or "AMOUNT".
4. "date": the transaction date in YYYY-MM-DD format.

Respond with ONLY a bare JSON object containing exactly those four keys. Use null for any value you cannot find. Numbers must be JSON numbers, not strings. Do not use markdown code blocks and do not add any explanation before or after the JSON.

Example response:
{"gallons": 10.523, "pricePerGallon": 3.899, "totalCost": 41.03, "date": "2024-06-01"}`

// buildReceiptPrompt embeds the extracted receipt text into the shared prompt.
func buildReceiptPrompt(extractedText string) string {
	return fmt.Sprintf(receiptPromptTemplate, extractedText)
}
