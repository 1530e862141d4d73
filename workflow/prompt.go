package workflow

import "fmt"

const generateSystem = "You are a workflow generation assistant. Always respond with valid JSON only."

const combinedSystem = "You are a workflow generation assistant that merges multiple information sources. Always respond with valid JSON only."

const extractSystem = "You are a data extraction assistant. Always respond with valid JSON only."

func generatePrompt(transcript string) string {
	return fmt.Sprintf(`You are an expert at converting verbal descriptions into concrete, actionable workflows for computer automation.

The user has provided the following transcript describing their workflow:
"%s"

Convert this into a structured, executable workflow. Format your response as a JSON object with the following structure:
{
  "title": "A concise title for the workflow",
  "description": "Brief description of what this workflow does",
  "steps": [
    {
      "step_number": 1,
      "action": "Action type (click, type, navigate, wait, etc.)",
      "target": "Description of what/where the action applies",
      "details": "Specific details or content",
      "automation_instruction": "Precise instruction for automation"
    }
  ],
  "estimated_time": "Estimated completion time",
  "prerequisites": ["Any prerequisites or required state"],
  "automation_ready": true
}

Be specific and technical. Each step should be automatable with tools like Selenium, PyAutoGUI, or similar automation frameworks.

IMPORTANT: Return ONLY the JSON object, no additional text before or after.`, transcript)
}

func combinedPrompt(voiceTranscript, videoAnalysis string) string {
	return fmt.Sprintf(`You are an expert at creating unified workflows from multiple information sources.

I have two sources of information about a user's workflow:
1. A voice transcript describing what the user intended to do
2. A video analysis showing what the user actually did

Combine these into a single, accurate workflow. Use the video analysis as the primary source for what actually happened, and the voice transcript for context, explanations, and intent.

IMPORTANT RULES:
- Eliminate duplicate steps that appear in both sources
- Keep only the most accurate and specific version of each action
- If the voice says one thing but the video shows something different, prioritize the video
- Merge related actions into single steps where appropriate
- Maintain chronological order

VOICE TRANSCRIPT:
%s

VIDEO ANALYSIS:
%s

Format your response as a JSON object with this structure:
{
  "title": "A concise title for the unified workflow",
  "description": "Brief description combining intent and execution",
  "steps": [
    {
      "step_number": 1,
      "action": "Action type (click, type, navigate, wait, etc.)",
      "target": "Description of what/where the action applies",
      "details": "Specific details or content",
      "automation_instruction": "Precise instruction for automation",
      "source": "voice" or "video" or "combined"
    }
  ],
  "estimated_time": "Estimated completion time",
  "prerequisites": ["Any prerequisites or required state"],
  "automation_ready": true
}

Return ONLY the JSON object, no additional text before or after.`, voiceTranscript, videoAnalysis)
}

func extractPrompt(transcript string) string {
	return fmt.Sprintf(`Extract key terms, actions, and concepts from this transcript:
"%s"

Return a JSON object with this structure:
{
  "terms": ["term1", "term2", "term3"]
}

Return ONLY the JSON object.`, transcript)
}
