package schema

import (
	"fmt"
)

// Built-in schema documents for each artifact type. Served by the
// schemas endpoint and used by the render command; a project can
// override them by shipping its own schema files.
var builtinSchemas = map[string]string{
	"discussion": discussionSchema,
	"adr":        adrSchema,
	"spec":       specSchema,
	"plan":       planSchema,
	"contract":   contractSchema,
}

// BuiltinJSON returns the raw built-in schema for an artifact type.
func BuiltinJSON(artifactType string) ([]byte, bool) {
	s, ok := builtinSchemas[artifactType]
	if !ok {
		return nil, false
	}
	return []byte(s), true
}

// Builtin parses and returns the built-in schema for an artifact type.
func Builtin(artifactType string) (*Document, error) {
	raw, ok := BuiltinJSON(artifactType)
	if !ok {
		return nil, fmt.Errorf("no schema for artifact type: %s", artifactType)
	}
	return Parse(raw)
}

// BuiltinTypes lists the artifact types with built-in schemas.
func BuiltinTypes() []string {
	return []string{"discussion", "adr", "spec", "plan", "contract"}
}

const discussionSchema = `{
  "title": "Discussion",
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "status": {"enum": ["open", "resolved", "parked"]},
    "summary": {"type": "string"},
    "participants": {"type": "array", "items": {"type": "string"}},
    "positions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "argument": {"type": "string"},
          "tradeoffs": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "outcome": {"anyOf": [{"type": "string"}, {"type": "null"}]}
  }
}`

const adrSchema = `{
  "title": "Architecture Decision Record",
  "type": "object",
  "$defs": {
    "Consequence": {
      "type": "object",
      "properties": {
        "description": {"type": "string"},
        "kind": {"enum": ["positive", "negative", "neutral"]}
      }
    }
  },
  "properties": {
    "title": {"type": "string"},
    "status": {"enum": ["proposed", "accepted", "deprecated", "superseded"]},
    "context": {"type": "string"},
    "decision": {"type": "string"},
    "alternatives": {"type": "array", "items": {"type": "string"}},
    "consequences": {"type": "array", "items": {"$ref": "#/$defs/Consequence"}},
    "supersedes": {"anyOf": [{"type": "string"}, {"type": "null"}]}
  }
}`

const specSchema = `{
  "title": "Specification",
  "type": "object",
  "$defs": {
    "Requirement": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "description": {"type": "string"},
        "priority": {"enum": ["must", "should", "may"]},
        "acceptance": {"type": "array", "items": {"type": "string"}}
      }
    }
  },
  "properties": {
    "title": {"type": "string"},
    "status": {"enum": ["draft", "review", "approved"]},
    "overview": {"type": "string"},
    "requirements": {"type": "array", "items": {"$ref": "#/$defs/Requirement"}},
    "non_goals": {"type": "array", "items": {"type": "string"}},
    "open_questions": {"type": "array", "items": {"type": "string"}}
  }
}`

const planSchema = `{
  "title": "Plan",
  "type": "object",
  "$defs": {
    "Task": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "title": {"type": "string"},
        "description": {"type": "string"},
        "status": {"enum": ["pending", "in_progress", "complete"]},
        "estimate": {"type": "number"},
        "blocked": {"type": "boolean"}
      }
    },
    "Phase": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "goal": {"type": "string"},
        "tasks": {"type": "array", "items": {"$ref": "#/$defs/Task"}}
      }
    }
  },
  "properties": {
    "title": {"type": "string"},
    "status": {"enum": ["draft", "approved", "in_progress", "complete"]},
    "why": {"type": "string"},
    "phases": {"type": "array", "items": {"$ref": "#/$defs/Phase"}},
    "risks": {"type": "array", "items": {"type": "string"}}
  }
}`

const contractSchema = `{
  "title": "Contract",
  "type": "object",
  "$defs": {
    "Field": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "type": {"type": "string"},
        "required": {"type": "boolean"},
        "description": {"type": "string"}
      }
    },
    "Operation": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "method": {"enum": ["GET", "POST", "PUT", "DELETE"]},
        "path": {"type": "string"},
        "description": {"type": "string"},
        "request": {"type": "array", "items": {"$ref": "#/$defs/Field"}},
        "response": {"type": "array", "items": {"$ref": "#/$defs/Field"}}
      }
    }
  },
  "properties": {
    "title": {"type": "string"},
    "status": {"enum": ["draft", "agreed", "implemented"]},
    "consumers": {"type": "array", "items": {"type": "string"}},
    "operations": {"type": "array", "items": {"$ref": "#/$defs/Operation"}},
    "notes": {"anyOf": [{"type": "string"}, {"type": "null"}]}
  }
}`
