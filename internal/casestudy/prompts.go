package casestudy

import "fmt"

const generationSystemPrompt = "You are a professional case study writer who creates compelling business narratives."

const generationPromptTemplate = `Based on the following content, generate a professional case study with these sections:
1. Challenge: Describe the key problems or challenges faced
2. Approach: How the challenge was addressed
3. Solution: The implemented solution
4. Outcomes: Results and benefits achieved

%sExtract the most relevant information to construct a compelling narrative.
Return the response as JSON in the following format:
{
    "title": "Title of the case study",
    "challenge": "Challenge section content",
    "approach": "Approach section content",
    "solution": "Solution section content",
    "outcomes": "Outcomes section content",
    "summary": "A brief executive summary",
    "key_points": ["Point 1", "Point 2", "Point 3"]
}

The content should be:
1. Well-structured and professional
2. Between 300-500 words total
3. Based exclusively on the information provided

Here is the extracted text:
%s`

// compactPromptTemplate trades detail for brevity on large inputs.
const compactPromptTemplate = `Extract key information from this content to create a concise professional case study.
Include these sections:
1. Challenge: The key problems or challenges faced
2. Approach: How the challenge was addressed
3. Solution: The implemented solution
4. Outcomes: Results and benefits achieved

%sReturn ONLY JSON in this format:
{
    "title": "Title of the case study",
    "challenge": "Challenge section content",
    "approach": "Approach section content",
    "solution": "Solution section content",
    "outcomes": "Outcomes section content",
    "summary": "A brief executive summary",
    "key_points": ["Point 1", "Point 2", "Point 3"]
}

Keep it concise (300-400 words total).

Here is the content:
%s`

func buildGenerationPrompt(text, audience string, largeInput bool) string {
	audiencePrompt := ""
	if audience != "" && audience != AudienceGeneral {
		audiencePrompt = fmt.Sprintf("Target audience: %s. ", audience)
	}
	if largeInput {
		return fmt.Sprintf(compactPromptTemplate, audiencePrompt, text)
	}
	return fmt.Sprintf(generationPromptTemplate, audiencePrompt, text)
}

// improvementPrompts maps an improvement type to its system and user prompt
// template. The user template receives the selected text.
var improvementPrompts = map[string]struct {
	system string
	user   string
}{
	ImproveSimplify: {
		system: "You are an editor who specializes in simplifying complex language while retaining meaning.",
		user:   "Simplify the following text to make it more accessible while preserving key information:\n\n%s",
	},
	ImproveExtend: {
		system: "You are an editor who specializes in expanding content with relevant details.",
		user:   "Expand the following text with more details and context while maintaining the professional tone:\n\n%s",
	},
	ImproveDefault: {
		system: "You are an expert editor who improves professional writing.",
		user:   "Improve the following text to make it more professional, impactful, and persuasive:\n\n%s",
	},
}
