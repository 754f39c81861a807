package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema pins the wire shape of Document. Downstream consumers
// key on these exact field names, so the schema is enforced in tests and
// available to callers that want to validate payloads at the boundary.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["pages", "total_pages", "extraction_methods", "overall_coverage"],
  "properties": {
    "pages": {"type": "array", "items": {"$ref": "#/$defs/page"}},
    "total_pages": {"type": "integer", "minimum": 0},
    "extraction_methods": {"type": "array", "items": {"type": "string"}},
    "overall_coverage": {"type": "number", "minimum": 0, "maximum": 100}
  },
  "$defs": {
    "bbox": {
      "type": "object",
      "required": ["x", "y", "width", "height"],
      "properties": {
        "x": {"type": "number", "minimum": 0, "maximum": 1},
        "y": {"type": "number", "minimum": 0, "maximum": 1},
        "width": {"type": "number", "minimum": 0, "maximum": 1},
        "height": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "word": {
      "type": "object",
      "required": ["text", "bbox", "confidence", "source"],
      "properties": {
        "text": {"type": "string", "minLength": 1},
        "bbox": {"$ref": "#/$defs/bbox"},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "source": {"type": "string"}
      }
    },
    "shape": {
      "type": "object",
      "required": ["type", "bbox"],
      "properties": {
        "type": {"enum": ["line", "rectangle"]},
        "bbox": {"$ref": "#/$defs/bbox"},
        "coordinates": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["x", "y"],
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"}
            }
          }
        }
      }
    },
    "cell": {
      "type": "object",
      "required": ["text", "row", "col", "confidence"],
      "properties": {
        "text": {"type": "string"},
        "row": {"type": "integer", "minimum": 0},
        "col": {"type": "integer", "minimum": 0},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "table": {
      "type": "object",
      "required": ["page_number", "table_id", "bbox", "cells", "rows", "cols"],
      "properties": {
        "page_number": {"type": "integer", "minimum": 1},
        "table_id": {"type": "string"},
        "bbox": {"$ref": "#/$defs/bbox"},
        "cells": {"type": "array", "items": {"$ref": "#/$defs/cell"}},
        "rows": {"type": "integer", "minimum": 0},
        "cols": {"type": "integer", "minimum": 0}
      }
    },
    "coverage": {
      "type": "object",
      "required": ["native_words", "ocr_words", "final_words", "coverage_percent"],
      "properties": {
        "native_words": {"type": "integer", "minimum": 0},
        "ocr_words": {"type": "integer", "minimum": 0},
        "final_words": {"type": "integer", "minimum": 0},
        "coverage_percent": {"type": "number", "minimum": 0, "maximum": 100}
      }
    },
    "page": {
      "type": "object",
      "required": ["page_number", "width", "height", "words", "shapes", "tables", "coverage"],
      "properties": {
        "page_number": {"type": "integer", "minimum": 1},
        "width": {"type": "number", "exclusiveMinimum": 0},
        "height": {"type": "number", "exclusiveMinimum": 0},
        "words": {"type": "array", "items": {"$ref": "#/$defs/word"}},
        "shapes": {"type": "array", "items": {"$ref": "#/$defs/shape"}},
        "tables": {"type": "array", "items": {"$ref": "#/$defs/table"}},
        "coverage": {"$ref": "#/$defs/coverage"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("document.json", strings.NewReader(documentSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("document.json")
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks a serialized Document against the wire schema.
func ValidateDocument(data []byte) error {
	sch, err := compiled()
	if err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("document schema violation: %w", err)
	}
	return nil
}
