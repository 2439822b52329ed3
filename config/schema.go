package config

// taintConfigSchema validates the taint rule file's shape before it is
// decoded into domain types: a minimal structural check — the three
// top-level arrays, required fields per rule kind, and the closed
// "base"/"arg"/"result" enum for position.kind — stops a malformed rule file
// from silently producing an empty (and therefore silently-useless) rule
// set at decode time. A malformed config is a clear rejection, not a quiet
// no-op.
const taintConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "sources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["class", "method", "resultType"],
        "properties": {
          "class":      {"type": "string", "minLength": 1},
          "method":     {"type": "string", "minLength": 1},
          "resultType": {"type": "string", "minLength": 1}
        }
      }
    },
    "transfers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["class", "method", "from", "to", "outputType"],
        "properties": {
          "class":      {"type": "string", "minLength": 1},
          "method":     {"type": "string", "minLength": 1},
          "from":       {"$ref": "#/$defs/position"},
          "to":         {"$ref": "#/$defs/position"},
          "outputType": {"type": "string", "minLength": 1}
        }
      }
    },
    "sinks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["class", "method", "argIndex"],
        "properties": {
          "class":    {"type": "string", "minLength": 1},
          "method":   {"type": "string", "minLength": 1},
          "argIndex": {"type": "integer", "minimum": 0}
        }
      }
    }
  },
  "$defs": {
    "position": {
      "type": "object",
      "required": ["kind"],
      "properties": {
        "kind":  {"type": "string", "enum": ["base", "arg", "result"]},
        "index": {"type": "integer", "minimum": 0}
      }
    }
  }
}`
