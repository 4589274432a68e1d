// Package task defines the task record, its validation, and its wire format.
//
// Tasks are persisted as a JSON array of records:
//
//	[
//	  {
//	    "id": 1729250000000,
//	    "title": "Buy groceries",
//	    "description": "Milk, eggs",
//	    "deadline": "2024-10-18T18:00:00+07:00",
//	    "priority": "high",
//	    "category": "shopping",
//	    "completed": false,
//	    "createdAt": "2024-10-18T10:33:20.000Z",
//	    "updatedAt": "2024-10-18T10:33:20.000Z"
//	  }
//	]
//
// # Validation
//
// Every record read from storage or from an import file passes through two
// stages:
//
// 1. JSON Schema validation against an embedded draft-2020-12 schema that
// only requires a non-empty id and a string title.
//
// 2. Decode-and-normalize into a Task. Titles and descriptions are trimmed,
// unknown priorities become "medium", unknown categories become "other",
// and unparseable deadlines become "no deadline".
//
// A record failing either stage is rejected on its own; the rest of the
// payload is still accepted.
//
// # Ids
//
// Ids are strings. Legacy payloads store time-derived numeric ids; those
// decode from JSON numbers and encode back to JSON numbers.
package task
