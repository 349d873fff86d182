package messenger

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// eventSchema describes the subset of a messaging event the relay reads.
// Unknown fields (delivery, read, reactions) are allowed.
const eventSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["sender"],
  "properties": {
    "sender": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1}
      }
    },
    "recipient": {
      "type": "object",
      "properties": {
        "id": {"type": "string"}
      }
    },
    "timestamp": {"type": "integer"},
    "message": {
      "type": "object",
      "properties": {
        "mid": {"type": "string"},
        "text": {"type": "string"},
        "is_echo": {"type": "boolean"},
        "attachments": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["type"],
            "properties": {
              "type": {"type": "string"},
              "payload": {
                "type": ["object", "null"],
                "properties": {
                  "url": {"type": "string"}
                }
              }
            }
          }
        }
      }
    },
    "postback": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "payload": {"type": "string"}
      }
    }
  }
}`

// EventValidator checks raw messaging events against eventSchema.
type EventValidator struct {
	schema *gojsonschema.Schema
}

func NewEventValidator() (*EventValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(eventSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schema: %w", err)
	}
	return &EventValidator{schema: schema}, nil
}

func (v *EventValidator) Validate(raw []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid event: %s", strings.Join(msgs, "; "))
	}
	return nil
}
