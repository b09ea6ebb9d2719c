package agent

// JSON schemas appended to collaborator prompts. Kept as literal strings
// so prompt text and parser stay reviewable side by side.

const roleGenerationSchema = `{
  "type": "object",
  "description": "Role names in priority order mapped to one-sentence descriptions",
  "additionalProperties": {"type": "string"}
}`

const decompositionSchema = `{
  "type": "object",
  "properties": {
    "subtasks": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string", "description": "e.g. \"subtask 1\""},
          "description": {"type": "string"},
          "input_tags": {"type": "array", "items": {"type": "string"}},
          "input_content": {"type": "string"},
          "output_standard": {"type": "string"},
          "depends_on": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["id", "description"]
      }
    }
  },
  "required": ["subtasks"]
}`

const compatibilitySchema = `{
  "type": "object",
  "properties": {
    "scores": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "score_assistant": {"type": "number", "minimum": 0, "maximum": 1},
          "score_user": {"type": "number", "minimum": 0, "maximum": 1}
        },
        "required": ["score_assistant", "score_user"]
      }
    }
  },
  "required": ["scores"]
}`

const labelDeductionSchema = `{
  "type": "object",
  "properties": {
    "labels": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["labels"]
}`

const insightExtractionSchema = `{
  "type": "object",
  "properties": {
    "insights": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "topic": {"type": "string"},
          "entity_recognition": {"type": "array", "items": {"type": "string"}},
          "extract_details": {"type": "string"},
          "contextual_understanding": {"type": "string"}
        },
        "required": ["topic", "entity_recognition"]
      }
    }
  },
  "required": ["insights"]
}`

const stepSchema = `{
  "type": "object",
  "properties": {
    "user": {
      "type": "object",
      "properties": {
        "content": {"type": "string"},
        "terminated": {"type": "boolean"},
        "termination_reasons": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["content"]
    },
    "assistant": {
      "type": "object",
      "properties": {
        "content": {"type": "string"},
        "terminated": {"type": "boolean"},
        "termination_reasons": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["content"]
    }
  },
  "required": ["user", "assistant"]
}`
