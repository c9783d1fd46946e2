package llm

import "fmt"

const summaryTemplate = `
Summarize the following customer support conversation:
%s
`

// ImprovementInstructions is sent verbatim ahead of the conversation.
const ImprovementInstructions = `Extract all responses given by the agent from the following conversation. Identify responses that may not have effectively addressed the customer’s concerns. 

Format the output as follows:
- Old Response: "<original agent response>"
- Upgraded Response: "<better alternative>"
- Reason for improvement: "<explanation>"

Ensure the upgraded response is clear, empathetic, and directly addresses customer concerns. Do not include customer statements in the output.`

const improvementTemplate = `
%s

Conversation:
%s
`

// SummaryPrompt embeds the transcript in the summarization prompt.
func SummaryPrompt(transcript string) string {
	return fmt.Sprintf(summaryTemplate, transcript)
}

// ImprovementPrompt embeds the transcript in the agent-response critique prompt.
func ImprovementPrompt(transcript string) string {
	return fmt.Sprintf(improvementTemplate, ImprovementInstructions, transcript)
}
