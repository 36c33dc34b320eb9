// Package dto contains Data Transfer Objects for HTTP requests and responses.
//
// DTOs are separate from domain entities to:
//   - Control what data is exposed in the API
//   - Handle JSON serialization/deserialization
//   - Add validation tags for request binding
//
// Naming convention:
//   - Request types: <Action><Resource>Request (e.g., CreateQuestionRequest)
//   - Response types: <Resource>Response (e.g., QuestionResponse)
package dto
